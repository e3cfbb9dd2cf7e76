package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SessionPath is the path segment under which the server exposes game
// sessions.
const SessionPath = "/mpg/"

// Endpoint derives the session URL for a game from the HTTP(S) base address
// of the backend. https becomes wss and http becomes ws.
func Endpoint(base, gameToken string) (string, error) {
	if gameToken == "" {
		return "", errors.New("game token is empty")
	}
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %s: %w", base, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme in base URL %s", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %s has no host", base)
	}

	escapedBase := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + SessionPath + gameToken
	u.RawPath = escapedBase + SessionPath + url.PathEscape(gameToken)
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
