package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"placementd/internal/placement"
	"placementd/pkg/bus"
)

func (a *API) handleStartSession(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(chi.URLParam(r, "roundID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid round id"))
		return
	}

	var req struct {
		CreatedBy string `json:"created_by,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	session, err := a.sessions.Start(ctx, roundID, strings.TrimSpace(req.CreatedBy))
	if err != nil {
		respondPlacementError(w, err)
		return
	}

	a.publishJSON(r.Context(), bus.SubjectSessionChanged, map[string]any{
		"session_id": session.ID,
		"round_id":   session.RoundID,
		"job_id":     session.JobID,
		"status":     session.Status,
	})

	respondJSON(w, http.StatusCreated, map[string]any{"session": session})
}

func (a *API) handleTransitionSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid session id"))
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	action := placement.TransitionAction(strings.ToUpper(strings.TrimSpace(req.Action)))
	switch action {
	case placement.ActionTempClose, placement.ActionPermClose, placement.ActionReopen:
	default:
		respondError(w, http.StatusBadRequest, fmt.Errorf("unknown action %q", req.Action))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	session, err := a.sessions.Transition(ctx, sessionID, action)
	if err != nil {
		respondPlacementError(w, err)
		return
	}

	a.publishJSON(r.Context(), bus.SubjectSessionChanged, map[string]any{
		"session_id": session.ID,
		"round_id":   session.RoundID,
		"job_id":     session.JobID,
		"status":     session.Status,
	})

	respondJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid session id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	session, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		respondPlacementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var roundID *uuid.UUID
	if raw := r.URL.Query().Get("round_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("invalid round_id"))
			return
		}
		roundID = &id
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	sessions, err := a.sessions.List(ctx, roundID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleIssueToken mints a signed attendance token for a student against an
// ACTIVE session, for display as a QR code.
func (a *API) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid session id"))
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == uuid.Nil {
		respondError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	raw, payload, err := a.recorder.IssueToken(ctx, sessionID, req.UserID)
	if err != nil {
		respondPlacementError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"token":      raw,
		"expires_at": payload.ExpiresAt,
	})
}
