package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"placementd/internal/placement"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	body := map[string]any{"error": err.Error()}
	if reason := reasonFor(err); reason != "" {
		body["reason"] = reason
	}
	respondJSON(w, status, body)
}

// respondPlacementError maps core errors onto HTTP statuses. Anything
// unrecognised is a 500.
func respondPlacementError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err)
}

func statusFor(err error) int {
	var notActive *placement.SessionNotActiveError
	var prereq *placement.PrerequisiteError
	var badTransition *placement.InvalidTransitionError

	switch {
	case errors.Is(err, placement.ErrSessionNotFound),
		errors.Is(err, placement.ErrRoundRemoved),
		errors.Is(err, placement.ErrApplicationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, placement.ErrNotAttendanceToken),
		errors.Is(err, placement.ErrNotApplied),
		errors.Is(err, placement.ErrKycNotVerified),
		errors.Is(err, placement.ErrWrongJob):
		return http.StatusBadRequest
	case errors.Is(err, placement.ErrActiveSessionExists),
		errors.Is(err, placement.ErrRoundPermanentlyClosed):
		return http.StatusConflict
	case errors.As(err, &notActive), errors.As(err, &prereq):
		return http.StatusBadRequest
	case errors.As(err, &badTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// reasonFor returns the stable machine-readable code for known errors, so
// scanner clients can branch without parsing messages.
func reasonFor(err error) string {
	var notActive *placement.SessionNotActiveError
	var prereq *placement.PrerequisiteError
	var badTransition *placement.InvalidTransitionError

	switch {
	case errors.Is(err, placement.ErrNotAttendanceToken):
		return "NOT_ATTENDANCE_TOKEN"
	case errors.Is(err, placement.ErrSessionNotFound):
		return "SESSION_NOT_FOUND"
	case errors.Is(err, placement.ErrNotApplied):
		return "NOT_APPLIED"
	case errors.Is(err, placement.ErrKycNotVerified):
		return "KYC_NOT_VERIFIED"
	case errors.Is(err, placement.ErrRoundRemoved):
		return "ROUND_REMOVED"
	case errors.Is(err, placement.ErrApplicationNotFound):
		return "APPLICATION_NOT_FOUND"
	case errors.Is(err, placement.ErrWrongJob):
		return "WRONG_JOB"
	case errors.Is(err, placement.ErrActiveSessionExists):
		return "ACTIVE_SESSION_EXISTS"
	case errors.Is(err, placement.ErrRoundPermanentlyClosed):
		return "ROUND_PERMANENTLY_CLOSED"
	case errors.As(err, &notActive):
		return "SESSION_NOT_ACTIVE"
	case errors.As(err, &prereq):
		if prereq.Failed {
			return "PREREQUISITE_FAILED"
		}
		return "PREREQUISITE_MISSING"
	case errors.As(err, &badTransition):
		return "INVALID_TRANSITION"
	default:
		return ""
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}
