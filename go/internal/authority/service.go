package authority

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fluencyrush/go/internal/stream"
)

// IdempotencyKeyHeader carries the client's deduplication key on XP writes.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxBodyBytes = 64 << 10

// Service exposes the App over HTTP.
type Service struct {
	app *App
	hub http.Handler
}

// NewService creates the HTTP service. hub serves the push channel.
func NewService(app *App, hub http.Handler) *Service {
	return &Service{
		app: app,
		hub: hub,
	}
}

// RegisterRoutes registers every authority route on mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("POST /users/{id}", s.handleRegisterUser)
	mux.HandleFunc("PATCH /users/{id}/xp", s.handleAddXP)
	mux.HandleFunc("GET /feed", s.handleListFeed)
	mux.HandleFunc("POST /feed", s.handleAppendFeed)
	mux.HandleFunc("GET /chat", s.handleListChat)
	mux.HandleFunc("POST /chat", s.handleAppendChat)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /questions-config", s.handleQuestionsConfig)
	mux.Handle("GET /events", s.hub)
}

type registerUserRequest struct {
	Name string `json:"name"`
}

type addXPRequest struct {
	Amount int `json:"amount"`
}

type appendFeedRequest struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	XP     int    `json:"xp"`
}

type appendChatRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.app.Users(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stream.UserMap(users))
}

func (s *Service) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, created, err := s.app.RegisterUser(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "new": created, "user": user})
}

func (s *Service) handleAddXP(w http.ResponseWriter, r *http.Request) {
	var req addXPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.app.AddXP(r.Context(), r.PathValue("id"), req.Amount, r.Header.Get(IdempotencyKeyHeader))
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, ErrUserNotFound)
		return
	case errors.Is(err, ErrNegativeXP), errors.Is(err, ErrXPTooLarge):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "xp": user.XP})
}

func (s *Service) handleListFeed(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.Feed(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleAppendFeed(w http.ResponseWriter, r *http.Request) {
	var req appendFeedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.app.AppendFeed(r.Context(), req.Name, req.Action, req.XP); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Service) handleListChat(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.app.Chat(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Service) handleAppendChat(w http.ResponseWriter, r *http.Request) {
	var req appendChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.app.AppendChat(r.Context(), req.Name, req.Text); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Service) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "msg": "state reset"})
}

func (s *Service) handleQuestionsConfig(w http.ResponseWriter, r *http.Request) {
	data, err := s.app.QuestionsConfig()
	if errors.Is(err, ErrNoQuestionsConfig) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("questions config unavailable")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decodeBody reads a JSON body into dst. An empty body leaves dst zeroed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
