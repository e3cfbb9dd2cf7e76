package internal

import (
	"github.com/kwkoo/go-birdr/internal/common"
	"github.com/kwkoo/go-birdr/internal/transport"
)

// Reduce applies one server event to state and returns the new state.
// activeGame is the token of the game the session joined; events that
// belong to a different game are ignored. state is not modified.
func Reduce(state common.SessionState, activeGame string, ev transport.Event) common.SessionState {
	next := state.Copy()
	switch e := ev.(type) {
	case transport.UpdatePlayers:
		next.Roster = common.CopyRoster(e.Players)

	case transport.NewQuestion:
		// the previous answer goes away even when the question is for
		// another game
		next.Answer = nil
		if e.Question != nil && e.Question.Game.Token == activeGame {
			next.Question = e.Question.Copy()
		}

	case transport.GameUpdated:
		if e.Game != nil && e.Game.Token == activeGame {
			next.Game = e.Game.Copy()
		}

	case transport.AnswerChecked:
		if e.Answer == nil || staleAnswer(next.Question, e.Answer) {
			return state
		}
		next.Answer = e.Answer.Copy()

	default:
		// game_started, player_joined and unrecognized actions carry no
		// session state
		return state
	}
	return next
}

// staleAnswer reports whether answer was checked against a question other
// than the one currently shown. The server usually leaves out the question
// id, so the question number is compared instead. Answers that identify
// neither are accepted.
func staleAnswer(current *common.Question, answer *common.Answer) bool {
	if current == nil {
		return false
	}
	if ref := answer.QuestionRef(); ref != 0 {
		return ref != current.ID
	}
	if answer.Number != 0 && current.Number != 0 {
		return answer.Number != current.Number
	}
	return false
}
