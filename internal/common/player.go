package common

type Player struct {
	ID       int    `json:"id"`
	Token    string `json:"token"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// PlayerStatus is the state of a participant for the current question.
type PlayerStatus string

const (
	StatusWaiting   PlayerStatus = "waiting"
	StatusCorrect   PlayerStatus = "correct"
	StatusIncorrect PlayerStatus = "incorrect"
)

// RosterEntry is one participant of a multiplayer game as broadcast by the
// server in update_players.
type RosterEntry struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	IsHost     bool         `json:"is_host,omitempty"`
	Language   string       `json:"language,omitempty"`
	Status     PlayerStatus `json:"status,omitempty"`
	Score      int          `json:"score"`
	Ranking    int          `json:"ranking,omitempty"`
	LastAnswer *Answer      `json:"last_answer,omitempty"`
}

func CopyRoster(roster []RosterEntry) []RosterEntry {
	target := make([]RosterEntry, len(roster))
	for i, p := range roster {
		target[i] = p
		target[i].LastAnswer = p.LastAnswer.Copy()
	}
	return target
}
