package room

import (
	"encoding/json"
	"net/http"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func httpStatus(err error) int {
	switch {
	case apperr.Is(err, apperr.KindValidation):
		return http.StatusBadRequest
	case apperr.Is(err, apperr.KindNotFound):
		return http.StatusNotFound
	case apperr.Is(err, apperr.KindConflict), apperr.Is(err, apperr.KindIllegalAction):
		return http.StatusConflict
	case apperr.Is(err, apperr.KindAuthorization):
		return http.StatusForbidden
	case apperr.Is(err, apperr.KindInfeasible):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]string{"error": err.Error()})
}

// CreateRoom opens a friendly or custom room and seats the creator.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode       game.GameMode  `json:"mode"`
		Code       string         `json:"code"`
		PlayerName string         `json:"playerName"`
		Settings   *game.Settings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}
	if req.Mode == game.ModeAdmin || req.Mode == game.ModeRandom {
		writeError(w, apperr.Validation("mode %s rooms cannot be created directly", req.Mode))
		return
	}

	params := CreateParams{
		Mode:     req.Mode,
		Code:     req.Code,
		HostName: req.PlayerName,
	}
	if req.Settings != nil {
		params.Settings = *req.Settings
	}
	rm, sess, err := h.service.CreateRoom(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Room    *game.Room `json:"room"`
		Session *Session   `json:"session,omitempty"`
	}{Room: rm, Session: sess})
}

func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	sess, rm, err := h.service.JoinRoom(r.Context(), r.PathValue("code"), req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Room    *game.Room `json:"room"`
		Session *Session   `json:"session"`
	}{Room: rm, Session: sess})
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := h.service.Get(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}
