package common

import "fmt"

// Media is one image, video or sound candidate for a species.
type Media struct {
	ID          int    `json:"id,omitempty"`
	URL         string `json:"url"`
	Link        string `json:"link,omitempty"`
	Contributor string `json:"contributor,omitempty"`
	Source      string `json:"source,omitempty"`
}

type Species struct {
	ID             int     `json:"id"`
	Code           string  `json:"code,omitempty"`
	Name           string  `json:"name,omitempty"`
	NameNL         string  `json:"name_nl,omitempty"`
	NameLatin      string  `json:"name_latin,omitempty"`
	NameTranslated string  `json:"name_translated,omitempty"`
	Images         []Media `json:"images,omitempty"`
	Videos         []Media `json:"videos,omitempty"`
	Sounds         []Media `json:"sounds,omitempty"`
}

// DisplayName prefers the translated name, then the english name, then the
// latin name.
func (s Species) DisplayName() string {
	switch {
	case s.NameTranslated != "":
		return s.NameTranslated
	case s.Name != "":
		return s.Name
	case s.NameLatin != "":
		return s.NameLatin
	}
	return fmt.Sprintf("species %d", s.ID)
}

type GameRef struct {
	Token string `json:"token"`
}

// Question is the quiz item currently being played. Options are only filled
// in on difficulty levels that offer multiple choice.
type Question struct {
	ID       int       `json:"id"`
	Number   int       `json:"number,omitempty"`
	Sequence int       `json:"sequence"`
	Done     bool      `json:"done,omitempty"`
	Game     GameRef   `json:"game"`
	Options  []Species `json:"options,omitempty"`
	Images   []Media   `json:"images"`
	Videos   []Media   `json:"videos"`
	Sounds   []Media   `json:"sounds"`
}

func (q Question) NumOptions() int {
	return len(q.Options)
}

func (q Question) GetOption(i int) (Species, error) {
	if i < 0 || i >= len(q.Options) {
		return Species{}, fmt.Errorf("%d is an invalid option index", i)
	}
	return q.Options[i], nil
}

func (q *Question) Copy() *Question {
	if q == nil {
		return nil
	}
	target := *q
	target.Options = append([]Species(nil), q.Options...)
	target.Images = append([]Media(nil), q.Images...)
	target.Videos = append([]Media(nil), q.Videos...)
	target.Sounds = append([]Media(nil), q.Sounds...)
	return &target
}

type PlayerRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// Answer is a scored submission as reported by the server.
type Answer struct {
	ID         int        `json:"id,omitempty"`
	QuestionID int        `json:"question_id,omitempty"`
	Question   *Question  `json:"question,omitempty"`
	Number     int        `json:"number,omitempty"`
	Sequence   int        `json:"sequence,omitempty"`
	Answer     *Species   `json:"answer,omitempty"`
	Species    *Species   `json:"species,omitempty"`
	Player     *PlayerRef `json:"player,omitempty"`
	Correct    bool       `json:"correct"`
	Score      int        `json:"score"`
}

// QuestionRef returns the id of the question this answer belongs to, or 0 if
// the payload does not say.
func (a *Answer) QuestionRef() int {
	if a == nil {
		return 0
	}
	if a.QuestionID != 0 {
		return a.QuestionID
	}
	if a.Question != nil {
		return a.Question.ID
	}
	return 0
}

func (a *Answer) Copy() *Answer {
	if a == nil {
		return nil
	}
	target := *a
	target.Question = a.Question.Copy()
	if a.Answer != nil {
		s := *a.Answer
		target.Answer = &s
	}
	if a.Species != nil {
		s := *a.Species
		target.Species = &s
	}
	if a.Player != nil {
		p := *a.Player
		target.Player = &p
	}
	return &target
}
