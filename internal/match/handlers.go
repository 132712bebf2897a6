package match

import (
	"encoding/json"
	"net/http"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func status(err error) int {
	switch {
	case apperr.Is(err, apperr.KindValidation):
		return http.StatusBadRequest
	case apperr.Is(err, apperr.KindConflict):
		return http.StatusConflict
	case apperr.Is(err, apperr.KindNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodePlayer(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerName == "" {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return "", false
	}
	return req.PlayerName, true
}

func (h *Handler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	playerName, ok := decodePlayer(w, r)
	if !ok {
		return
	}
	if err := h.service.AddToQueue(r.Context(), playerName); err != nil {
		http.Error(w, err.Error(), status(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Player added to queue"))
}

func (h *Handler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	playerName, ok := decodePlayer(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveFromQueue(r.Context(), playerName); err != nil {
		http.Error(w, err.Error(), status(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Player removed from queue"))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	playerName := r.URL.Query().Get("player")
	if playerName == "" {
		http.Error(w, "missing player", http.StatusBadRequest)
		return
	}
	state, roomCode, err := h.service.Status(r.Context(), playerName)
	if err != nil {
		http.Error(w, err.Error(), status(err))
		return
	}
	resp := map[string]string{"status": state}
	if roomCode != "" {
		resp["roomCode"] = roomCode
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) ClaimMatch(w http.ResponseWriter, r *http.Request) {
	playerName, ok := decodePlayer(w, r)
	if !ok {
		return
	}
	roomCode, playerID, err := h.service.ClaimResult(r.Context(), playerName)
	if err != nil {
		http.Error(w, err.Error(), status(err))
		return
	}
	resp := map[string]string{"roomCode": roomCode, "playerId": playerID}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
