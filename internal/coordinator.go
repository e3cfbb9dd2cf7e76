package internal

import (
	"context"
	"sync"

	"github.com/kwkoo/go-birdr/internal/common"
	"github.com/kwkoo/go-birdr/internal/logger"
	"github.com/kwkoo/go-birdr/internal/messaging"
	"github.com/kwkoo/go-birdr/internal/transport"
	"github.com/rs/zerolog"
)

// StateChanged is published on messaging.SessionStateTopic whenever the
// session state changes.
type StateChanged struct {
	State common.SessionState
}

// Mirror receives a copy of every published session state.
type Mirror interface {
	Publish(state common.SessionState) error
}

// Coordinator owns the connection to a single multiplayer game and the
// state reduced from its events. Every join and leave starts a new epoch;
// callbacks from connections of an older epoch are ignored.
type Coordinator struct {
	mux    sync.Mutex
	ctx    context.Context
	base   string
	dialer transport.Dialer
	hub    *messaging.MessageHub
	mirror Mirror
	log    zerolog.Logger

	state common.SessionState
	conn  transport.Conn
}

// NewCoordinator returns a disconnected coordinator. base is the site URL
// that session endpoints are derived from. hub and mirror may be nil.
func NewCoordinator(ctx context.Context, base string, dialer transport.Dialer, hub *messaging.MessageHub, mirror Mirror) *Coordinator {
	return &Coordinator{
		ctx:    ctx,
		base:   base,
		dialer: dialer,
		hub:    hub,
		mirror: mirror,
		log:    logger.For("coordinator"),
		state:  common.SessionState{Roster: []common.RosterEntry{}},
	}
}

// Join connects to game as player. Joining the pair that is already
// connecting or connected does nothing. Anything else tears down the
// current session first; a nil game or player, or one without a token,
// only tears down.
func (c *Coordinator) Join(game *common.Game, player *common.Player) {
	c.mux.Lock()
	defer c.mux.Unlock()

	var gameToken, playerToken string
	if game != nil {
		gameToken = game.Token
	}
	if player != nil {
		playerToken = player.Token
	}

	if gameToken != "" && playerToken != "" &&
		c.conn != nil &&
		c.state.Status != common.Disconnected &&
		c.state.GameToken == gameToken &&
		c.state.PlayerToken == playerToken {
		c.log.Debug().Str("game", gameToken).Msg("already joined")
		return
	}

	c.resetLocked()
	if gameToken == "" || playerToken == "" {
		c.publishLocked()
		return
	}

	url, err := transport.Endpoint(c.base, gameToken)
	if err != nil {
		c.log.Error().Err(err).Str("game", gameToken).Msg("could not derive session endpoint")
		c.publishLocked()
		return
	}

	c.state.GameToken = gameToken
	c.state.PlayerToken = playerToken
	c.state.Language = common.LanguageOrDefault(player.Language)
	c.state.Game = game.Copy()
	c.state.Status = common.Connecting
	c.conn = c.dialer.Dial(c.ctx, url, &sessionListener{
		coordinator: c,
		epoch:       c.state.Epoch,
	})
	c.log.Info().
		Str("game", gameToken).
		Str("conn", c.conn.ID()).
		Uint64("epoch", c.state.Epoch).
		Msg("joining game")
	c.publishLocked()
}

// Leave closes the current connection and clears the session.
func (c *Coordinator) Leave() {
	c.Join(nil, nil)
}

// resetLocked closes the connection and discards all session data before
// a new epoch starts.
func (c *Coordinator) resetLocked() {
	if c.conn != nil {
		c.log.Info().Str("conn", c.conn.ID()).Msg("closing session connection")
		c.conn.Close()
		c.conn = nil
	}
	c.state = common.SessionState{
		Epoch:  c.state.Epoch + 1,
		Status: common.Disconnected,
		Roster: []common.RosterEntry{},
	}
}

func (c *Coordinator) StartGame() {
	c.send(func(playerToken string) transport.Action {
		return transport.StartGame(playerToken)
	})
}

// Advance asks the server for the next question.
func (c *Coordinator) Advance() {
	c.send(func(playerToken string) transport.Action {
		return transport.NextQuestion(playerToken)
	})
}

// Answer submits choiceID as the answer to question. The result arrives
// later as an answer_checked event.
func (c *Coordinator) Answer(question *common.Question, choiceID int) {
	if question == nil {
		c.log.Debug().Msg("no question to answer")
		return
	}
	questionID := question.ID
	c.send(func(playerToken string) transport.Action {
		return transport.SubmitAnswer(playerToken, questionID, choiceID)
	})
}

func (c *Coordinator) send(build func(playerToken string) transport.Action) {
	c.mux.Lock()
	defer c.mux.Unlock()
	action := build(c.state.PlayerToken)
	if c.conn == nil || c.state.Status != common.Connected {
		c.log.Debug().
			Str("action", action.Action).
			Str("status", c.state.Status.String()).
			Msg("not connected, dropping action")
		return
	}
	c.conn.Send(action)
}

// ClearQuestion forgets the current question and answer locally.
func (c *Coordinator) ClearQuestion() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.state.Question == nil && c.state.Answer == nil {
		return
	}
	c.state.Question = nil
	c.state.Answer = nil
	c.publishLocked()
}

// Snapshot returns a copy of the current session state.
func (c *Coordinator) Snapshot() common.SessionState {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.state.Copy()
}

func (c *Coordinator) publishLocked() {
	if c.hub == nil && c.mirror == nil {
		return
	}
	snapshot := c.state.Copy()
	if c.hub != nil {
		c.hub.TrySend(messaging.SessionStateTopic, StateChanged{State: snapshot})
	}
	if c.mirror != nil {
		if err := c.mirror.Publish(snapshot); err != nil {
			c.log.Warn().Err(err).Msg("could not mirror session state")
		}
	}
}

// current reports whether epoch is still the active one. Must be called
// with the mutex held.
func (c *Coordinator) current(epoch uint64) bool {
	if epoch != c.state.Epoch {
		c.log.Debug().
			Uint64("epoch", epoch).
			Uint64("current", c.state.Epoch).
			Msg("ignoring callback from superseded connection")
		return false
	}
	return true
}

func (c *Coordinator) opened(epoch uint64) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if !c.current(epoch) || c.conn == nil {
		return
	}
	c.state.Status = common.Connected
	c.conn.Send(transport.JoinGame(c.state.PlayerToken, c.state.Language))
	c.log.Info().Str("game", c.state.GameToken).Msg("connected")
	c.publishLocked()
}

func (c *Coordinator) received(epoch uint64, ev transport.Event) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if !c.current(epoch) {
		return
	}
	c.log.Debug().Str("event", ev.Tag()).Msg("received event")
	if e, ok := ev.(transport.PlayerJoined); ok {
		c.log.Info().Str("player", e.PlayerName).Msg("player joined")
	}
	c.state = Reduce(c.state, c.state.GameToken, ev)
	c.publishLocked()
}

func (c *Coordinator) closed(epoch uint64, err error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if !c.current(epoch) {
		return
	}
	c.log.Warn().Err(err).Str("game", c.state.GameToken).Msg("session connection closed")
	c.state.Status = common.Disconnected
	c.conn = nil
	c.publishLocked()
}

// sessionListener forwards transport callbacks tagged with the epoch that
// was current when the connection was dialed.
type sessionListener struct {
	coordinator *Coordinator
	epoch       uint64
}

func (l *sessionListener) OnOpen() {
	l.coordinator.opened(l.epoch)
}

func (l *sessionListener) OnEvent(ev transport.Event) {
	l.coordinator.received(l.epoch, ev)
}

func (l *sessionListener) OnClose(err error) {
	l.coordinator.closed(l.epoch, err)
}
