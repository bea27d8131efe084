package placement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"placementd/internal/models"
	"placementd/internal/token"
	gos3 "placementd/pkg/s3"
)

// StudentSummary is what the scanning operator sees before confirming:
// enough to visually match the person in front of them.
type StudentSummary struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

// AlreadyAttended is the idempotent outcome of a duplicate scan or a lost
// confirm race. MarkedAt is the original record's timestamp.
type AlreadyAttended struct {
	AttendanceID uuid.UUID               `json:"attendance_id"`
	Status       models.AttendanceStatus `json:"status"`
	MarkedAt     time.Time               `json:"marked_at"`
}

// VerifyResult is the phase-1 outcome for a signed token scan. When Already
// is nil the scan is ready to confirm.
type VerifyResult struct {
	Student StudentSummary
	Round   models.Round
	Job     models.Job
	Token   token.Payload
	Already *AlreadyAttended
}

// ConfirmResult is the phase-2 outcome. Exactly one of Attendance (first
// write) or Already (duplicate) is meaningful.
type ConfirmResult struct {
	Attendance models.RoundAttendance
	Already    *AlreadyAttended
}

// Recorder implements the two-phase verify/confirm attendance protocol.
// Phase 1 is read-only and repeatable; phase 2 writes exactly one row per
// (student, round), enforced by the database uniqueness constraint.
type Recorder struct {
	orm       *gorm.DB
	codec     *token.Codec
	sessions  *SessionManager
	validator *Validator

	photos      *gos3.Client
	photoBucket string
	photoTTL    time.Duration
}

// RecorderOptions carries the optional photo presign wiring.
type RecorderOptions struct {
	Photos      *gos3.Client
	PhotoBucket string
	PhotoTTL    time.Duration
}

func NewRecorder(orm *gorm.DB, codec *token.Codec, sessions *SessionManager, validator *Validator, opts RecorderOptions) (*Recorder, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if validator == nil {
		return nil, errors.New("validator is required")
	}
	if opts.PhotoTTL <= 0 {
		opts.PhotoTTL = 15 * time.Minute
	}
	return &Recorder{
		orm:         orm,
		codec:       codec,
		sessions:    sessions,
		validator:   validator,
		photos:      opts.Photos,
		photoBucket: opts.PhotoBucket,
		photoTTL:    opts.PhotoTTL,
	}, nil
}

// IssueToken mints a signed attendance token for a student against an ACTIVE
// session. This is the kiosk/QR display side of the protocol.
func (r *Recorder) IssueToken(ctx context.Context, sessionID, userID uuid.UUID) (string, token.Payload, error) {
	session, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", token.Payload{}, err
	}
	if session.Status != models.SessionActive {
		return "", token.Payload{}, &SessionNotActiveError{Status: session.Status}
	}

	raw, signed, err := r.codec.Issue(token.Payload{
		UserID:    userID,
		JobID:     session.JobID,
		RoundID:   session.RoundID,
		SessionID: session.ID,
	})
	if err != nil {
		return "", token.Payload{}, err
	}
	return raw, signed, nil
}

// VerifyScan is phase 1. It decodes the scanned text as a signed token and
// runs the full eligibility check. It writes nothing and may be retried
// freely. ErrNotAttendanceToken means the text is not a signed token at all
// and the caller should try the legacy path.
func (r *Recorder) VerifyScan(ctx context.Context, raw string) (VerifyResult, error) {
	payload, ok := r.codec.Verify(raw)
	if !ok {
		return VerifyResult{}, ErrNotAttendanceToken
	}

	elig, err := r.validator.Check(ctx, payload.UserID, payload.JobID, payload.RoundID, payload.SessionID)
	if err != nil {
		return VerifyResult{}, err
	}

	result := VerifyResult{
		Student: r.studentSummary(ctx, elig.Student),
		Round:   elig.Round,
		Job:     elig.Job,
		Token:   payload,
	}
	if elig.Already != nil {
		result.Already = &AlreadyAttended{
			AttendanceID: elig.Already.ID,
			Status:       elig.Already.Status,
			MarkedAt:     elig.Already.MarkedAt,
		}
	}
	return result, nil
}

// Confirm is phase 2. It re-derives every invariant (the session may have
// closed since phase 1) and then inserts the attendance row. A concurrent
// confirm for the same (student, round) loses the insert and is reported as
// AlreadyAttended with the winner's timestamp.
func (r *Recorder) Confirm(ctx context.Context, userID, jobID, roundID, sessionID uuid.UUID) (ConfirmResult, error) {
	elig, err := r.validator.Check(ctx, userID, jobID, roundID, sessionID)
	if err != nil {
		return ConfirmResult{}, err
	}
	if elig.Already != nil {
		return ConfirmResult{Already: &AlreadyAttended{
			AttendanceID: elig.Already.ID,
			Status:       elig.Already.Status,
			MarkedAt:     elig.Already.MarkedAt,
		}}, nil
	}

	attendance := models.RoundAttendance{
		ID:        uuid.New(),
		UserID:    userID,
		RoundID:   roundID,
		JobID:     jobID,
		SessionID: &sessionID,
		Status:    models.AttendanceAttended,
		MarkedAt:  time.Now().UTC(),
	}

	res := r.orm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "round_id"}},
			DoNothing: true,
		}).
		Create(&attendance)
	if res.Error != nil && !isUniqueViolation(res.Error) {
		return ConfirmResult{}, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return ConfirmResult{Attendance: attendance}, nil
	}

	// Lost the race: surface the existing record.
	var existing models.RoundAttendance
	if err := r.orm.WithContext(ctx).
		First(&existing, "user_id = ? AND round_id = ?", userID, roundID).Error; err != nil {
		return ConfirmResult{}, err
	}
	return ConfirmResult{Already: &AlreadyAttended{
		AttendanceID: existing.ID,
		Status:       existing.Status,
		MarkedAt:     existing.MarkedAt,
	}}, nil
}

func (r *Recorder) studentSummary(ctx context.Context, student models.StudentProfile) StudentSummary {
	summary := StudentSummary{UserID: student.UserID, FullName: student.FullName}
	if r.photos == nil || r.photoBucket == "" || student.PhotoKey == "" {
		return summary
	}
	url, err := r.photos.PresignGet(ctx, r.photoBucket, student.PhotoKey, r.photoTTL)
	if err == nil {
		summary.PhotoURL = url
	}
	return summary
}
