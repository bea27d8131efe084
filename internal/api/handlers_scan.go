package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"placementd/internal/placement"
	"placementd/pkg/bus"
)

// The scan endpoints keep the wire shape the existing scanner app expects:
// camelCase fields, success/message envelope, 409 for duplicates.

type tokenData struct {
	UserID    uuid.UUID `json:"userId"`
	JobID     uuid.UUID `json:"jobId"`
	RoundID   uuid.UUID `json:"roundId"`
	SessionID uuid.UUID `json:"sessionId"`
}

// handleScan is phase 1 of the attendance protocol. The scanned text is
// tried as a signed token first; if it does not verify at all, the legacy
// unsigned formats are tried. Legacy scans record in one step since there is
// no operator confirmation in that flow.
func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QRData   string     `json:"qrData"`
		Location string     `json:"location,omitempty"`
		JobID    *uuid.UUID `json:"jobId,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.QRData) == "" {
		respondError(w, http.StatusBadRequest, errors.New("qrData is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	result, err := a.recorder.VerifyScan(ctx, req.QRData)
	if errors.Is(err, placement.ErrNotAttendanceToken) {
		a.handleLegacyScan(w, r, req.QRData, req.JobID, req.Location)
		return
	}
	if err != nil {
		scansTotal.WithLabelValues("rejected").Inc()
		respondPlacementError(w, err)
		return
	}

	if result.Already != nil {
		scansTotal.WithLabelValues("already_attended").Inc()
		respondJSON(w, http.StatusConflict, map[string]any{
			"success":             true,
			"message":             "attendance already recorded",
			"requireConfirmation": false,
			"student":             result.Student,
			"round":               result.Round,
			"job":                 result.Job,
			"attendance":          result.Already,
		})
		return
	}

	scansTotal.WithLabelValues("ready_to_confirm").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"message":             "verified, awaiting confirmation",
		"requireConfirmation": true,
		"student":             result.Student,
		"round":               result.Round,
		"job":                 result.Job,
		"tokenData": tokenData{
			UserID:    result.Token.UserID,
			JobID:     result.Token.JobID,
			RoundID:   result.Token.RoundID,
			SessionID: result.Token.SessionID,
		},
	})
}

func (a *API) handleLegacyScan(w http.ResponseWriter, r *http.Request, scan string, jobID *uuid.UUID, location string) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	result, err := a.legacy.Resolve(ctx, scan, jobID, location)
	if err != nil {
		scansTotal.WithLabelValues("legacy_rejected").Inc()
		respondPlacementError(w, err)
		return
	}

	if result.Already {
		scansTotal.WithLabelValues("legacy_already_attended").Inc()
		respondJSON(w, http.StatusConflict, map[string]any{
			"success":    true,
			"message":    "attendance already recorded",
			"legacy":     true,
			"student":    result.Student,
			"attendance": result.Record,
		})
		return
	}

	a.publishJSON(r.Context(), bus.SubjectLegacyRecorded, map[string]any{
		"attendance_id":  result.Record.ID,
		"application_id": result.Record.ApplicationID,
		"user_id":        result.Record.UserID,
		"job_id":         result.Record.JobID,
		"scanned_at":     result.Record.ScannedAt,
	})

	scansTotal.WithLabelValues("legacy_recorded").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "attendance recorded",
		"legacy":     true,
		"student":    result.Student,
		"attendance": result.Record,
	})
}

// handleScanConfirm is phase 2. The identifiers come from the phase-1
// tokenData; every invariant is re-checked before the write.
func (a *API) handleScanConfirm(w http.ResponseWriter, r *http.Request) {
	var req tokenData
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == uuid.Nil || req.JobID == uuid.Nil || req.RoundID == uuid.Nil || req.SessionID == uuid.Nil {
		respondError(w, http.StatusBadRequest, errors.New("userId, jobId, roundId and sessionId are required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	result, err := a.recorder.Confirm(ctx, req.UserID, req.JobID, req.RoundID, req.SessionID)
	if err != nil {
		confirmsTotal.WithLabelValues("rejected").Inc()
		respondPlacementError(w, err)
		return
	}

	if result.Already != nil {
		confirmsTotal.WithLabelValues("already_attended").Inc()
		respondJSON(w, http.StatusConflict, map[string]any{
			"success":    true,
			"message":    "attendance already recorded",
			"attendance": result.Already,
		})
		return
	}

	a.publishJSON(r.Context(), bus.SubjectAttendanceRecorded, map[string]any{
		"attendance_id": result.Attendance.ID,
		"user_id":       result.Attendance.UserID,
		"job_id":        result.Attendance.JobID,
		"round_id":      result.Attendance.RoundID,
		"session_id":    result.Attendance.SessionID,
		"marked_at":     result.Attendance.MarkedAt,
	})

	confirmsTotal.WithLabelValues("recorded").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "attendance recorded",
		"attendance": result.Attendance,
	})
}
