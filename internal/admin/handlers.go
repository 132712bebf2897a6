package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
	"github.com/seastrike/seastrike-backend/internal/room"
)

type Handler struct {
	service *Service
	rooms   *room.Service
}

func NewHandler(service *Service, rooms *room.Service) *Handler {
	return &Handler{service: service, rooms: rooms}
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identify(w, r)
	if !ok {
		return
	}
	if !caller.Super {
		writeError(w, apperr.Authorization("superadmin permission required"))
		return
	}

	var req struct {
		Username    string   `json:"username"`
		Password    string   `json:"password"`
		DisplayName string   `json:"displayName"`
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	if err := h.service.Register(req.Username, req.Password, req.DisplayName, req.Permissions); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Admin registered"})
}

// identify resolves the bearer token to an admin identity, writing the
// error response itself on failure.
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (room.AdminIdentity, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return room.AdminIdentity{}, false
	}
	id, err := h.service.VerifyToken(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return room.AdminIdentity{}, false
	}
	return id, true
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req struct {
		Code     string         `json:"code"`
		Settings *game.Settings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	params := room.CreateParams{
		Mode:    game.ModeAdmin,
		Code:    req.Code,
		AdminID: caller.Username,
	}
	if req.Settings != nil {
		params.Settings = *req.Settings
	}
	rm, _, err := h.rooms.CreateRoom(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rm)
}

func (h *Handler) GrantAbility(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req struct {
		PlayerID string          `json:"playerId"`
		Ability  game.AbilityKey `json:"ability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	rm, err := h.rooms.GrantAbility(r.Context(), caller, r.PathValue("code"), req.PlayerID, req.Ability)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (h *Handler) TogglePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identify(w, r)
	if !ok {
		return
	}

	rm, err := h.rooms.TogglePause(r.Context(), caller, r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (h *Handler) DeclareWinner(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req struct {
		WinnerID string `json:"winnerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	rm, err := h.rooms.DeclareWinner(r.Context(), caller, r.PathValue("code"), req.WinnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (h *Handler) EndGame(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identify(w, r)
	if !ok {
		return
	}

	rm, err := h.rooms.EndGame(r.Context(), caller, r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (h *Handler) GodsHand(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req struct {
		TargetPlayerID string `json:"targetPlayerId"`
		Quadrant       int    `json:"quadrant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	out, rm, err := h.rooms.GodsHand(r.Context(), caller, r.PathValue("code"), req.TargetPlayerID, req.Quadrant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Room    *game.Room          `json:"room"`
		Outcome game.AbilityOutcome `json:"outcome"`
	}{Room: rm, Outcome: out})
}
