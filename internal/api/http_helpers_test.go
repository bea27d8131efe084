package api

import (
	"errors"
	"net/http"
	"testing"

	"placementd/internal/placement"
)

func TestStatusAndReasonMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"not a token", placement.ErrNotAttendanceToken, http.StatusBadRequest, "NOT_ATTENDANCE_TOKEN"},
		{"session missing", placement.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"not applied", placement.ErrNotApplied, http.StatusBadRequest, "NOT_APPLIED"},
		{"kyc", placement.ErrKycNotVerified, http.StatusBadRequest, "KYC_NOT_VERIFIED"},
		{"round removed", placement.ErrRoundRemoved, http.StatusNotFound, "ROUND_REMOVED"},
		{"application missing", placement.ErrApplicationNotFound, http.StatusNotFound, "APPLICATION_NOT_FOUND"},
		{"wrong job", placement.ErrWrongJob, http.StatusBadRequest, "WRONG_JOB"},
		{"active exists", placement.ErrActiveSessionExists, http.StatusConflict, "ACTIVE_SESSION_EXISTS"},
		{"perm closed round", placement.ErrRoundPermanentlyClosed, http.StatusConflict, "ROUND_PERMANENTLY_CLOSED"},
		{
			"session closed",
			&placement.SessionNotActiveError{Status: "TEMP_CLOSED"},
			http.StatusBadRequest,
			"SESSION_NOT_ACTIVE",
		},
		{
			"prerequisite missing",
			&placement.PrerequisiteError{RoundName: "Written Test"},
			http.StatusBadRequest,
			"PREREQUISITE_MISSING",
		},
		{
			"prerequisite failed",
			&placement.PrerequisiteError{RoundName: "Written Test", Failed: true},
			http.StatusBadRequest,
			"PREREQUISITE_FAILED",
		},
		{
			"invalid transition",
			&placement.InvalidTransitionError{From: "PERM_CLOSED", Action: placement.ActionReopen},
			http.StatusConflict,
			"INVALID_TRANSITION",
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.wantStatus {
				t.Errorf("statusFor() = %d, want %d", got, tt.wantStatus)
			}
			if got := reasonFor(tt.err); got != tt.wantReason {
				t.Errorf("reasonFor() = %q, want %q", got, tt.wantReason)
			}
		})
	}
}
