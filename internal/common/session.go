package common

import (
	"bytes"
	"encoding/json"
)

type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connecting
	Connected
)

func (s ConnectionStatus) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

func (s ConnectionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// SessionState is everything the UI needs to render a multiplayer session.
// Roster, Question, Answer and Game are discarded on every join.
type SessionState struct {
	Epoch       uint64           `json:"epoch"`
	Status      ConnectionStatus `json:"status"`
	GameToken   string           `json:"gametoken,omitempty"`
	PlayerToken string           `json:"-"`
	Language    string           `json:"language,omitempty"`
	Roster      []RosterEntry    `json:"players"`
	Question    *Question        `json:"question,omitempty"`
	Answer      *Answer          `json:"answer,omitempty"`
	Game        *Game            `json:"game,omitempty"`
}

func (s *SessionState) Copy() SessionState {
	return SessionState{
		Epoch:       s.Epoch,
		Status:      s.Status,
		GameToken:   s.GameToken,
		PlayerToken: s.PlayerToken,
		Language:    s.Language,
		Roster:      CopyRoster(s.Roster),
		Question:    s.Question.Copy(),
		Answer:      s.Answer.Copy(),
		Game:        s.Game.Copy(),
	}
}

func (s SessionState) Marshal() ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	if err := enc.Encode(&s); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Me returns the roster entry whose id matches the given player id.
func (s *SessionState) Me(playerID int) (RosterEntry, bool) {
	for _, p := range s.Roster {
		if p.ID == playerID {
			return p, true
		}
	}
	return RosterEntry{}, false
}
