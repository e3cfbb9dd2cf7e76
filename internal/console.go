package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kwkoo/go-birdr/internal/api"
	"github.com/kwkoo/go-birdr/internal/common"
	"github.com/kwkoo/go-birdr/internal/logger"
	"github.com/kwkoo/go-birdr/internal/messaging"
	"github.com/rs/zerolog"
)

// ResourceClient creates and loads the player and game records that a
// session is joined with.
type ResourceClient interface {
	CreatePlayer(ctx context.Context, name, language, accessToken string) (*common.Player, error)
	GetPlayer(ctx context.Context, token string) (*common.Player, error)
	CreateGame(ctx context.Context, playerToken string, req api.CreateGameRequest) (*common.Game, error)
	LoadGame(ctx context.Context, token string) (*common.Game, error)
}

// Console drives a Coordinator from line commands and prints the session
// whenever it changes.
type Console struct {
	coordinator *Coordinator
	client      ResourceClient
	prefs       Preferences
	hub         *messaging.MessageHub
	out         io.Writer
	log         zerolog.Logger

	language    string
	accessToken string
	gameOptions api.CreateGameRequest

	player *common.Player
	game   *common.Game
}

type ConsoleConfig struct {
	Language    string
	AccessToken string
	GameOptions api.CreateGameRequest
}

func NewConsole(coordinator *Coordinator, client ResourceClient, prefs Preferences, hub *messaging.MessageHub, out io.Writer, config ConsoleConfig) *Console {
	return &Console{
		coordinator: coordinator,
		client:      client,
		prefs:       prefs,
		hub:         hub,
		out:         out,
		log:         logger.For("console"),
		language:    common.LanguageOrDefault(config.Language),
		accessToken: config.AccessToken,
		gameOptions: config.GameOptions,
	}
}

// Resume restores the player from preferences, or creates one called
// playerName, and joins gameToken or the last game that was played.
func (c *Console) Resume(ctx context.Context, playerName, gameToken string) error {
	if token, err := c.prefs.Get(PlayerTokenKey); err == nil {
		player, err := c.client.GetPlayer(ctx, token)
		switch {
		case err == nil:
			c.player = player
		case errors.Is(err, api.ErrNotFound):
			c.log.Warn().Msg("stored player no longer exists")
			c.prefs.Delete(PlayerTokenKey)
		default:
			return err
		}
	} else if !errors.Is(err, ErrNoPreference) {
		return err
	}

	if c.player == nil && playerName != "" {
		if err := c.createPlayer(ctx, playerName); err != nil {
			return err
		}
	}
	if c.player == nil {
		fmt.Fprintln(c.out, "no player yet, use: player <name>")
		return nil
	}
	fmt.Fprintf(c.out, "playing as %s\n", c.player.Name)

	if gameToken == "" {
		stored, err := c.prefs.Get(GameTokenKey)
		if err != nil {
			if errors.Is(err, ErrNoPreference) {
				return nil
			}
			return err
		}
		gameToken = stored
	}
	return c.joinGame(ctx, gameToken)
}

// Run processes console input and state changes from the hub until ctx is
// done or the user quits.
func (c *Console) Run(ctx context.Context) {
	inputs := c.hub.GetTopic(messaging.ConsoleInputTopic)
	states := c.hub.GetTopic(messaging.SessionStateTopic)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inputs:
			if !ok {
				return
			}
			line, ok := msg.(string)
			if !ok {
				c.log.Warn().Msgf("unexpected console input %T", msg)
				continue
			}
			if quit := c.Execute(ctx, line); quit {
				return
			}
		case msg, ok := <-states:
			if !ok {
				return
			}
			if changed, ok := msg.(StateChanged); ok {
				c.render(changed.State)
			}
		}
	}
}

// Execute runs a single command line. It returns true when the user asked
// to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	cmd := NewConsoleCommand(line)
	var err error
	switch cmd.cmd {
	case "":
		return false
	case "player":
		err = c.createPlayer(ctx, cmd.arg)
	case "create":
		err = c.createGame(ctx)
	case "join":
		err = c.joinGame(ctx, cmd.arg)
	case "rejoin":
		err = c.rejoin()
	case "start":
		c.coordinator.StartGame()
	case "next":
		c.coordinator.Advance()
	case "answer":
		err = c.answer(cmd.arg)
	case "clear":
		c.coordinator.ClearQuestion()
	case "leave":
		c.coordinator.Leave()
		c.game = nil
		err = c.prefs.Delete(GameTokenKey)
	case "status":
		err = c.status()
	case "quit", "exit":
		c.coordinator.Leave()
		return true
	default:
		err = fmt.Errorf("unknown command %q", cmd.cmd)
	}
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return false
}

func (c *Console) createPlayer(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("usage: player <name>")
	}
	player, err := c.client.CreatePlayer(ctx, name, c.language, c.accessToken)
	if err != nil {
		return err
	}
	c.player = player
	if err := c.prefs.Set(PlayerTokenKey, player.Token); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created player %s\n", player.Name)
	return nil
}

func (c *Console) createGame(ctx context.Context) error {
	if c.player == nil {
		return errors.New("create a player first")
	}
	options := c.gameOptions
	if options.Language == "" {
		options.Language = c.player.Language
	}
	game, err := c.client.CreateGame(ctx, c.player.Token, options)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created game %s\n", game.Token)
	return c.join(game)
}

func (c *Console) joinGame(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("usage: join <token>")
	}
	if c.player == nil {
		return errors.New("create a player first")
	}
	game, err := c.client.LoadGame(ctx, token)
	if err != nil {
		return err
	}
	return c.join(game)
}

func (c *Console) join(game *common.Game) error {
	c.game = game
	c.coordinator.Join(game, c.player)
	return c.prefs.Set(GameTokenKey, game.Token)
}

func (c *Console) rejoin() error {
	if c.game == nil || c.player == nil {
		return errors.New("no game to rejoin")
	}
	c.coordinator.Join(c.game, c.player)
	return nil
}

func (c *Console) answer(arg string) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return errors.New("usage: answer <option number>")
	}
	question := c.coordinator.Snapshot().Question
	if question == nil {
		return errors.New("there is no question to answer")
	}
	option, err := question.GetOption(n - 1)
	if err != nil {
		return err
	}
	c.coordinator.Answer(question, option.ID)
	return nil
}

func (c *Console) status() error {
	s, err := common.ConvertToJSON(c.coordinator.Snapshot())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, s)
	return nil
}

func (c *Console) render(state common.SessionState) {
	fmt.Fprintf(c.out, "[%s] game %s\n", state.Status, orNone(state.GameToken))
	if state.Game != nil && state.Game.Ended {
		fmt.Fprintln(c.out, "game over")
	}
	var playerID int
	if c.player != nil {
		playerID = c.player.ID
	}
	for _, p := range state.Roster {
		var marks string
		if p.IsHost {
			marks += " (host)"
		}
		if playerID != 0 && p.ID == playerID {
			marks += " (you)"
		}
		fmt.Fprintf(c.out, "  %-20s %5d %s%s\n", p.Name, p.Score, p.Status, marks)
	}
	if me, ok := state.Me(playerID); ok && playerID != 0 && me.Ranking > 0 {
		fmt.Fprintf(c.out, "you are ranked %d\n", me.Ranking)
	}
	if playerID != 0 && state.Status == common.Connected && state.Question == nil && state.Game.IsHostedBy(playerID) && !state.Game.Ended {
		fmt.Fprintln(c.out, "you are hosting, type start or next")
	}
	if q := state.Question; q != nil {
		fmt.Fprintf(c.out, "question %d\n", q.Sequence)
		for i, o := range q.Options {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, o.DisplayName())
		}
	}
	if a := state.Answer; a != nil {
		result := "incorrect"
		if a.Correct {
			result = "correct"
		}
		fmt.Fprintf(c.out, "answer %s, score %d", result, a.Score)
		if a.Species != nil {
			fmt.Fprintf(c.out, ", it was %s", a.Species.DisplayName())
		}
		fmt.Fprintln(c.out)
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
