package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kwkoo/go-birdr/internal/common"
	"github.com/kwkoo/go-birdr/internal/logger"
)

const (
	createGameTimeout = 30 * time.Second
	maxErrorBody      = 512
)

var ErrNotFound = errors.New("not found")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// CreateGameRequest holds the options of a new game. Length is sent as a
// string.
type CreateGameRequest struct {
	Multiplayer    bool   `json:"multiplayer"`
	Country        string `json:"country"`
	Language       string `json:"language"`
	Level          string `json:"level"`
	Length         string `json:"length"`
	Media          string `json:"media"`
	IncludeRare    bool   `json:"include_rare"`
	IncludeEscapes bool   `json:"include_escapes"`
	TaxOrder       string `json:"tax_order,omitempty"`
	TaxFamily      string `json:"tax_family,omitempty"`
}

// Client talks to the player and game resources of the quiz site.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %s: scheme must be http or https", base)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: httpClient,
	}, nil
}

// CreatePlayer registers a new player. accessToken links the player to a
// user account and may be empty.
func (c *Client) CreatePlayer(ctx context.Context, name, language, accessToken string) (*common.Player, error) {
	body := struct {
		Name     string `json:"name"`
		Language string `json:"language"`
	}{
		Name:     strings.TrimSpace(name),
		Language: common.LanguageOrDefault(language),
	}
	var player common.Player
	if err := c.do(ctx, http.MethodPost, "/api/player/", accessToken, &body, &player); err != nil {
		return nil, fmt.Errorf("could not create player: %w", err)
	}
	return &player, nil
}

func (c *Client) GetPlayer(ctx context.Context, token string) (*common.Player, error) {
	var player common.Player
	path := "/api/player/" + url.PathEscape(token) + "/"
	if err := c.do(ctx, http.MethodGet, path, token, nil, &player); err != nil {
		return nil, fmt.Errorf("could not get player: %w", err)
	}
	return &player, nil
}

// CreateGame creates a multiplayer game hosted by the player.
func (c *Client) CreateGame(ctx context.Context, playerToken string, req CreateGameRequest) (*common.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, createGameTimeout)
	defer cancel()

	req.Multiplayer = true
	req.Language = common.LanguageOrDefault(req.Language)
	var game common.Game
	if err := c.do(ctx, http.MethodPost, "/api/games/", playerToken, &req, &game); err != nil {
		return nil, fmt.Errorf("could not create game: %w", err)
	}
	return &game, nil
}

func (c *Client) LoadGame(ctx context.Context, token string) (*common.Game, error) {
	var game common.Game
	path := "/api/games/" + url.PathEscape(token) + "/"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &game); err != nil {
		return nil, fmt.Errorf("could not load game %s: %w", token, err)
	}
	return &game, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		var b bytes.Buffer
		if err := json.NewEncoder(&b).Encode(in); err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		body = &b
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer = strings.TrimSpace(bearer); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	log := logger.For("api")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
