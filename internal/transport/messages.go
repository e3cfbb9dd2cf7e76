package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kwkoo/go-birdr/internal/common"
)

// --------------------
// Client -> Server
// --------------------

const (
	ActionJoinGame     = "join_game"
	ActionStartGame    = "start_game"
	ActionNextQuestion = "next_question"
	ActionSubmitAnswer = "submit_answer"
)

// Action is an outbound message. Fields that do not apply to an action are
// left empty and omitted on the wire.
type Action struct {
	Action       string `json:"action"`
	PlayerToken  string `json:"player_token"`
	LanguageCode string `json:"language_code,omitempty"`
	QuestionID   int    `json:"question_id,omitempty"`
	AnswerID     int    `json:"answer_id,omitempty"`
}

func JoinGame(playerToken, languageCode string) Action {
	return Action{
		Action:       ActionJoinGame,
		PlayerToken:  playerToken,
		LanguageCode: languageCode,
	}
}

func StartGame(playerToken string) Action {
	return Action{Action: ActionStartGame, PlayerToken: playerToken}
}

func NextQuestion(playerToken string) Action {
	return Action{Action: ActionNextQuestion, PlayerToken: playerToken}
}

func SubmitAnswer(playerToken string, questionID, answerID int) Action {
	return Action{
		Action:      ActionSubmitAnswer,
		PlayerToken: playerToken,
		QuestionID:  questionID,
		AnswerID:    answerID,
	}
}

// --------------------
// Server -> Client
// --------------------

const (
	EventUpdatePlayers = "update_players"
	EventNewQuestion   = "new_question"
	EventGameStarted   = "game_started"
	EventGameUpdated   = "game_updated"
	EventAnswerChecked = "answer_checked"
	EventPlayerJoined  = "player_joined"
)

// Event is one decoded inbound message. The set of implementations is
// closed: UpdatePlayers, NewQuestion, GameStarted, GameUpdated,
// AnswerChecked, PlayerJoined and Unknown.
type Event interface {
	Tag() string
	isEvent()
}

type UpdatePlayers struct {
	Players []common.RosterEntry
}

type NewQuestion struct {
	Question *common.Question
}

type GameStarted struct{}

type GameUpdated struct {
	Game *common.Game
}

type AnswerChecked struct {
	Answer *common.Answer
}

type PlayerJoined struct {
	PlayerName string
}

// Unknown carries the tag of a message this client does not understand.
type Unknown struct {
	Action string
}

func (UpdatePlayers) Tag() string { return EventUpdatePlayers }
func (NewQuestion) Tag() string   { return EventNewQuestion }
func (GameStarted) Tag() string   { return EventGameStarted }
func (GameUpdated) Tag() string   { return EventGameUpdated }
func (AnswerChecked) Tag() string { return EventAnswerChecked }
func (PlayerJoined) Tag() string  { return EventPlayerJoined }
func (u Unknown) Tag() string     { return u.Action }

func (UpdatePlayers) isEvent() {}
func (NewQuestion) isEvent()   {}
func (GameStarted) isEvent()   {}
func (GameUpdated) isEvent()   {}
func (AnswerChecked) isEvent() {}
func (PlayerJoined) isEvent()  {}
func (Unknown) isEvent()       {}

var ErrMissingAction = errors.New("message has no action")

// Decode turns one text frame into an Event. A players list that cannot be
// decoded yields an empty roster and an unusable question yields a
// NewQuestion without one. Every other shape problem is an error and the
// frame should be dropped.
func Decode(b []byte) (Event, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(b, &envelope); err != nil {
		return nil, fmt.Errorf("error decoding message: %w", err)
	}

	var action string
	if raw, ok := envelope["action"]; ok {
		if err := json.Unmarshal(raw, &action); err != nil {
			return nil, fmt.Errorf("error decoding action: %w", err)
		}
	}
	if action == "" {
		return nil, ErrMissingAction
	}

	switch action {
	case EventUpdatePlayers:
		players := []common.RosterEntry{}
		if raw, ok := envelope["players"]; ok {
			if err := json.Unmarshal(raw, &players); err != nil || players == nil {
				players = []common.RosterEntry{}
			}
		}
		return UpdatePlayers{Players: players}, nil

	case EventNewQuestion:
		// still delivered without a usable question so the previous answer
		// gets cleared
		var question common.Question
		if err := decodeField(envelope, "question", &question); err != nil {
			return NewQuestion{}, nil
		}
		return NewQuestion{Question: &question}, nil

	case EventGameStarted:
		return GameStarted{}, nil

	case EventGameUpdated:
		var game common.Game
		if err := decodeField(envelope, "game", &game); err != nil {
			return nil, err
		}
		return GameUpdated{Game: &game}, nil

	case EventAnswerChecked:
		var answer common.Answer
		if err := decodeField(envelope, "answer", &answer); err != nil {
			return nil, err
		}
		return AnswerChecked{Answer: &answer}, nil

	case EventPlayerJoined:
		var name string
		if err := decodeField(envelope, "player_name", &name); err != nil {
			return nil, err
		}
		return PlayerJoined{PlayerName: name}, nil
	}

	return Unknown{Action: action}, nil
}

func decodeField(envelope map[string]json.RawMessage, field string, target interface{}) error {
	raw, ok := envelope[field]
	if !ok || string(raw) == "null" {
		return fmt.Errorf("message is missing %s", field)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("error decoding %s: %w", field, err)
	}
	return nil
}
