package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kwkoo/go-birdr/internal/common"
	"github.com/kwkoo/go-birdr/internal/logger"
)

type SessionApp interface {
	Snapshot() common.SessionState
	Leave()
}

// RestApi exposes the running session for inspection.
type RestApi struct {
	app    SessionApp
	router chi.Router
}

func InitRestApi(app SessionApp) *RestApi {
	api := &RestApi{app: app}
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Get("/api/session", api.GetSession)
	r.Delete("/api/session", api.DeleteSession)
	api.router = r
	return api
}

func (api *RestApi) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.router.ServeHTTP(w, r)
}

func (api *RestApi) GetSession(w http.ResponseWriter, r *http.Request) {
	state := api.app.Snapshot()
	w.Header().Add("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(&state); err != nil {
		log := logger.For("restapi")
		log.Warn().Err(err).Msg("error encoding session state to JSON")
	}
}

func (api *RestApi) DeleteSession(w http.ResponseWriter, r *http.Request) {
	api.app.Leave()
	w.Header().Add("Content-Type", "application/json")
	streamResponse(w, true, "")
}

func streamResponse(w io.Writer, success bool, errMsg string) {
	resp := struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{
		Success: success,
		Error:   errMsg,
	}
	json.NewEncoder(w).Encode(&resp)
}
