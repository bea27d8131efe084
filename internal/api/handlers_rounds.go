package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleListRounds(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid job id"))
		return
	}
	includeRemoved := r.URL.Query().Get("include_removed") == "true"

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	rounds, err := a.rounds.List(ctx, jobID, includeRemoved)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"rounds": rounds})
}

func (a *API) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid job id"))
		return
	}

	var req struct {
		Name      string `json:"name"`
		SortOrder int    `json:"sort_order,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	round, err := a.rounds.Create(ctx, jobID, req.Name, req.SortOrder)
	if err != nil {
		respondPlacementError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"round": round})
}

// handleUpdateRound renames and/or reorders a round. Reordering shifts the
// other active rounds of the job to keep the sequence dense.
func (a *API) handleUpdateRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(chi.URLParam(r, "roundID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid round id"))
		return
	}

	var req struct {
		Name      *string `json:"name,omitempty"`
		SortOrder *int    `json:"sort_order,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == nil && req.SortOrder == nil {
		respondError(w, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	round, err := a.rounds.Get(ctx, roundID)
	if err != nil {
		respondPlacementError(w, err)
		return
	}
	if req.Name != nil {
		round, err = a.rounds.Rename(ctx, roundID, *req.Name)
		if err != nil {
			respondPlacementError(w, err)
			return
		}
	}
	if req.SortOrder != nil {
		round, err = a.rounds.Reorder(ctx, roundID, *req.SortOrder)
		if err != nil {
			respondPlacementError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"round": round})
}

func (a *API) handleRemoveRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(chi.URLParam(r, "roundID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid round id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	round, err := a.rounds.Remove(ctx, roundID)
	if err != nil {
		respondPlacementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"round": round})
}

func (a *API) handleRestoreRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(chi.URLParam(r, "roundID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid round id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	round, err := a.rounds.Restore(ctx, roundID)
	if err != nil {
		respondPlacementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"round": round})
}
