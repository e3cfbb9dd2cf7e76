package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePlayer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/player/" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access" {
			http.Error(w, "missing access token", http.StatusUnauthorized)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       12,
			"token":    "p1",
			"name":     body["name"],
			"language": body["language"],
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/", server.Client())
	if err != nil {
		t.Fatalf("could not create client: %v", err)
	}
	player, err := client.CreatePlayer(context.Background(), "  Jan ", "", "access")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.ID != 12 || player.Token != "p1" || player.Name != "Jan" || player.Language != "en" {
		t.Errorf("unexpected player %+v", player)
	}
}

func TestGetPlayerSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/player/p1/" || r.Header.Get("Authorization") != "Bearer p1" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"id":12,"token":"p1","name":"Jan","language":"nl"}`))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, server.Client())
	player, err := client.GetPlayer(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.Language != "nl" {
		t.Errorf("expected language nl but got %s", player.Language)
	}

	if _, err := client.GetPlayer(context.Background(), "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound but got %v", err)
	}
}

func TestCreateGameIsMultiplayer(t *testing.T) {
	var received CreateGameRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer p1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token":"abc","level":"beginner","length":"10","multiplayer":true,"host":{"id":12,"name":"Jan"},"country":{"code":"NL","name":"Netherlands"}}`))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, server.Client())
	game, err := client.CreateGame(context.Background(), "p1", CreateGameRequest{
		Country: "NL",
		Level:   "beginner",
		Length:  "10",
		Media:   "images",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !received.Multiplayer || received.Language != "en" || received.Country != "NL" {
		t.Errorf("unexpected request %+v", received)
	}
	if game.Token != "abc" || game.Length != 10 || !game.IsHostedBy(12) {
		t.Errorf("unexpected game %+v", game)
	}
}

func TestLoadGameErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/games/broken/":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/api/games/garbage/":
			w.Write([]byte(`not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, server.Client())

	_, err := client.LoadGame(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound but got %v", err)
	}

	_, err = client.LoadGame(context.Background(), "broken")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError || statusErr.Body != "boom" {
		t.Errorf("expected a 500 StatusError but got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("did not expect a 500 to be reported as not found")
	}

	if _, err = client.LoadGame(context.Background(), "garbage"); err == nil {
		t.Errorf("expected a decoding error")
	}
}

func TestNewClientRejectsInvalidBase(t *testing.T) {
	for _, base := range []string{"ftp://birdr.pro", "birdr.pro", "://"} {
		if _, err := NewClient(base, nil); err == nil {
			t.Errorf("expected an error for %q", base)
		}
	}
}
