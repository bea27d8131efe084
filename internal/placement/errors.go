// Package placement implements the attendance-verification core of the
// portal: round ordering, drive-session lifecycle, eligibility checks, the
// two-phase verify/confirm protocol, and the legacy unsigned-code fallback.
package placement

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"placementd/internal/models"
)

// Scans and admin actions fail with one of these; each maps to a stable
// reason string at the HTTP layer. AlreadyAttended is deliberately not here:
// a duplicate scan is a normal outcome, carried as a result value.
var (
	ErrNotAttendanceToken  = errors.New("not a signed attendance token")
	ErrSessionNotFound     = errors.New("drive session not found")
	ErrNotApplied          = errors.New("student has not applied to this job")
	ErrKycNotVerified      = errors.New("student profile is not KYC verified")
	ErrRoundRemoved        = errors.New("round is removed or does not exist")
	ErrApplicationNotFound = errors.New("application not found")
	ErrWrongJob            = errors.New("application belongs to a different job")

	ErrActiveSessionExists    = errors.New("an active session already exists for this round")
	ErrRoundPermanentlyClosed = errors.New("round has a permanently closed session; no further sessions may be started")
)

// SessionNotActiveError reports a scan against a closed session and carries
// which closed state, so the operator message can be precise.
type SessionNotActiveError struct {
	Status models.SessionStatus
}

func (e *SessionNotActiveError) Error() string {
	switch e.Status {
	case models.SessionTempClosed:
		return "drive session is temporarily closed"
	case models.SessionPermClosed:
		return "drive session is permanently closed"
	default:
		return fmt.Sprintf("drive session is not active (status %s)", e.Status)
	}
}

// PrerequisiteError reports the first lower-ordered round blocking a scan.
// Failed distinguishes a FAILED record from a missing one.
type PrerequisiteError struct {
	RoundID   uuid.UUID
	RoundName string
	Failed    bool
}

func (e *PrerequisiteError) Error() string {
	if e.Failed {
		return fmt.Sprintf("prerequisite round %q was failed", e.RoundName)
	}
	return fmt.Sprintf("prerequisite round %q has not been attended", e.RoundName)
}

// InvalidTransitionError reports a session transition that is not allowed
// from the session's current state. The session is left unchanged.
type InvalidTransitionError struct {
	From   models.SessionStatus
	Action TransitionAction
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a session in state %s", e.Action, e.From)
}
