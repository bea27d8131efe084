package placement

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"placementd/internal/models"
)

// legacyScan is the parsed form of a pre-token scan. Exactly one of the
// fields is set.
type legacyScan struct {
	ApplicationID uuid.UUID
	Identifier    string
}

// parseLegacyScan interprets scanned text that failed signature verification.
// Two historical formats exist: a JSON object {"applicationId": "<uuid>"}
// printed on older hall tickets, and a bare application identifier. Anything
// unparseable is treated as a bare identifier and resolved (or rejected) by
// lookup.
func parseLegacyScan(raw string) (legacyScan, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return legacyScan{}, ErrApplicationNotFound
	}

	if strings.HasPrefix(trimmed, "{") {
		var body struct {
			ApplicationID string `json:"applicationId"`
		}
		if err := json.Unmarshal([]byte(trimmed), &body); err == nil && body.ApplicationID != "" {
			id, err := uuid.Parse(body.ApplicationID)
			if err != nil {
				return legacyScan{}, ErrApplicationNotFound
			}
			return legacyScan{ApplicationID: id}, nil
		}
		return legacyScan{}, ErrApplicationNotFound
	}

	if id, err := uuid.Parse(trimmed); err == nil {
		return legacyScan{ApplicationID: id}, nil
	}
	return legacyScan{Identifier: trimmed}, nil
}

// LegacyResult reports a legacy-path attendance record. Already is set when
// the record existed before this scan.
type LegacyResult struct {
	Record  models.LegacyAttendance
	Student StudentSummary
	Already bool
}

// legacyDisposition says what Resolve must do with the record for an
// application: create one, claim a pre-loaded row that was never scanned,
// or report the prior scan.
type legacyDisposition int

const (
	legacyCreate legacyDisposition = iota
	legacyClaim
	legacyAlready
)

// classifyLegacyRecord keys on ScannedAt, not row existence: bulk imports
// pre-create rows without a scan time, and those count as unscanned.
func classifyLegacyRecord(existing *models.LegacyAttendance) legacyDisposition {
	switch {
	case existing == nil:
		return legacyCreate
	case existing.ScannedAt == nil:
		return legacyClaim
	default:
		return legacyAlready
	}
}

// LegacyRecorder resolves unsigned scans against the application table and
// records them in a single step. Unlike the token path there is no confirm
// phase: the legacy flow predates operator confirmation.
type LegacyRecorder struct {
	orm *gorm.DB
}

func NewLegacyRecorder(orm *gorm.DB) *LegacyRecorder {
	return &LegacyRecorder{orm: orm}
}

// Resolve looks up the scanned identifier, optionally restricted to one job,
// and marks the application scanned. Repeat scans return the original record
// unchanged.
func (l *LegacyRecorder) Resolve(ctx context.Context, raw string, jobFilter *uuid.UUID, location string) (LegacyResult, error) {
	scan, err := parseLegacyScan(raw)
	if err != nil {
		return LegacyResult{}, err
	}

	var app models.Application
	query := l.orm.WithContext(ctx).Where("is_removed = false")
	switch {
	case scan.ApplicationID != uuid.Nil:
		query = query.Where("id = ?", scan.ApplicationID)
	default:
		query = query.Where("legacy_identifier = ?", scan.Identifier)
	}
	if err := query.First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LegacyResult{}, ErrApplicationNotFound
		}
		return LegacyResult{}, err
	}
	if jobFilter != nil && app.JobID != *jobFilter {
		return LegacyResult{}, ErrWrongJob
	}

	var existing models.LegacyAttendance
	err = l.orm.WithContext(ctx).First(&existing, "application_id = ?", app.ID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return LegacyResult{}, err
	}

	var found *models.LegacyAttendance
	if err == nil {
		found = &existing
	}
	switch classifyLegacyRecord(found) {
	case legacyAlready:
		return l.result(ctx, existing, app, true)
	case legacyClaim:
		return l.claim(ctx, existing, app, location)
	}

	now := time.Now().UTC()
	record := models.LegacyAttendance{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		UserID:        app.UserID,
		JobID:         app.JobID,
		Location:      location,
		ScannedAt:     &now,
		Extra:         datatypes.JSONMap{"raw": raw},
	}
	res := l.orm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "application_id"}},
			DoNothing: true,
		}).
		Create(&record)
	if res.Error != nil && !isUniqueViolation(res.Error) {
		return LegacyResult{}, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return l.result(ctx, record, app, false)
	}

	// Lost the insert to a concurrent writer. The conflicting row is an
	// unscanned import if it arrived through the bulk loader; claim it.
	if err := l.orm.WithContext(ctx).First(&existing, "application_id = ?", app.ID).Error; err != nil {
		return LegacyResult{}, err
	}
	if existing.ScannedAt == nil {
		return l.claim(ctx, existing, app, location)
	}
	return l.result(ctx, existing, app, true)
}

// claim stamps a scan time onto a pre-loaded record that was never scanned.
// The IS NULL guard makes concurrent claims converge on one writer; the
// loser reports the winner's timestamp.
func (l *LegacyRecorder) claim(ctx context.Context, existing models.LegacyAttendance, app models.Application, location string) (LegacyResult, error) {
	now := time.Now().UTC()
	res := l.orm.WithContext(ctx).
		Model(&models.LegacyAttendance{}).
		Where("application_id = ? AND scanned_at IS NULL", app.ID).
		Updates(map[string]any{"scanned_at": now, "location": location})
	if res.Error != nil {
		return LegacyResult{}, res.Error
	}
	if res.RowsAffected == 0 {
		if err := l.orm.WithContext(ctx).First(&existing, "application_id = ?", app.ID).Error; err != nil {
			return LegacyResult{}, err
		}
		return l.result(ctx, existing, app, true)
	}

	existing.ScannedAt = &now
	existing.Location = location
	return l.result(ctx, existing, app, false)
}

func (l *LegacyRecorder) result(ctx context.Context, record models.LegacyAttendance, app models.Application, already bool) (LegacyResult, error) {
	out := LegacyResult{Record: record, Already: already}
	var student models.StudentProfile
	if err := l.orm.WithContext(ctx).First(&student, "user_id = ?", app.UserID).Error; err == nil {
		out.Student = StudentSummary{UserID: student.UserID, FullName: student.FullName}
	}
	return out, nil
}
