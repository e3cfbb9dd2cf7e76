package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Length is the number of questions in a game. The backend sends it either
// as a number or as a numeric string.
type Length int

func (l *Length) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*l = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid game length %s: %v", string(b), err)
	}
	*l = Length(n)
	return nil
}

type Country struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

type Host struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// Game is the subset of the game resource that matters to a multiplayer
// session.
type Game struct {
	Token       string   `json:"token"`
	Level       string   `json:"level,omitempty"`
	Language    string   `json:"language,omitempty"`
	Media       string   `json:"media,omitempty"`
	Length      Length   `json:"length,omitempty"`
	Multiplayer bool     `json:"multiplayer,omitempty"`
	Progress    int      `json:"progress,omitempty"`
	Ended       bool     `json:"ended"`
	Host        *Host    `json:"host,omitempty"`
	Country     *Country `json:"country,omitempty"`
}

// IsHostedBy returns true if the host of the game carries the given player
// id.
func (g *Game) IsHostedBy(playerID int) bool {
	return g != nil && g.Host != nil && g.Host.ID == playerID
}

func (g *Game) Copy() *Game {
	if g == nil {
		return nil
	}
	target := *g
	if g.Host != nil {
		host := *g.Host
		target.Host = &host
	}
	if g.Country != nil {
		country := *g.Country
		target.Country = &country
	}
	return &target
}
