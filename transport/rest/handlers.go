package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// Identity arrives pre-authenticated from the fronting auth layer as opaque
// header values; this surface performs no validation on it.
const (
	headerIdentityID  = "X-Identity-Id"
	headerDisplayName = "X-Display-Name"
)

type attachResponse struct {
	Session  *entity.Session `json:"session"`
	Role     entity.Role     `json:"role"`
	ReadOnly bool            `json:"read_only"`
}

type variantRequest struct {
	Variant string `json:"variant"`

	// StartingRole optionally names which role opens the first round;
	// tic-tac-toe only, defaults to role A.
	StartingRole string `json:"starting_role,omitempty"`
}

type moveRequest struct {
	Cell int `json:"cell"`
}

type toggleRequest struct {
	Target string `json:"target,omitempty"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type starterRequest struct {
	StartingRole string `json:"starting_role"`
	SwapSeats    bool   `json:"swap_seats,omitempty"`
}

type messageRequest struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func (that *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := that.sessions.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (that *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	identity := callerIdentity(r)
	if identity.ID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "identity is required"})
		return
	}

	session, role, err := that.sessions.Attach(r.Context(), chi.URLParam(r, "sessionID"), identity)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attachResponse{
		Session:  session,
		Role:     role,
		ReadOnly: role == entity.RoleNone,
	})
}

func (that *Server) handleSelectVariant(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := that.sessions.SelectVariant(r.Context(), chi.URLParam(r, "sessionID"), entity.Variant(req.Variant), entity.Role(req.StartingRole))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *Server) handleMakeTurn(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := that.sessions.MakeTurn(r.Context(), chi.URLParam(r, "sessionID"), callerIdentity(r), req.Cell)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *Server) handleToggleCell(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cell := entity.Cell{Row: req.Row, Col: req.Col}
	session, err := that.sessions.ToggleCell(r.Context(), chi.URLParam(r, "sessionID"), callerIdentity(r), entity.Role(req.Target), cell)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.Rematch(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *Server) handleReassignStarter(w http.ResponseWriter, r *http.Request) {
	var req starterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := that.sessions.ReassignStarter(
		r.Context(),
		chi.URLParam(r, "sessionID"),
		callerIdentity(r),
		entity.Role(req.StartingRole),
		req.SwapSeats,
	)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := that.sessions.Messages(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (that *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := that.sessions.PostMessage(r.Context(), chi.URLParam(r, "sessionID"), callerIdentity(r), req.Kind, req.Payload)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (that *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameConcluded),
		errors.Is(err, apperror.ErrGameNotStarted),
		errors.Is(err, apperror.ErrNotYourCard),
		errors.Is(err, apperror.ErrVariantAlreadySet),
		errors.Is(err, apperror.ErrVariantNotSet),
		errors.Is(err, apperror.ErrVariantMismatch),
		errors.Is(err, apperror.ErrRoundNotConcluded):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrInvalidRole),
		errors.Is(err, apperror.ErrUnknownVariant),
		errors.Is(err, apperror.ErrInvalidMessage):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotParticipant):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func callerIdentity(r *http.Request) entity.Identity {
	return entity.Identity{
		ID:          r.Header.Get(headerIdentityID),
		DisplayName: r.Header.Get(headerDisplayName),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
