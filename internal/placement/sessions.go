package placement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"placementd/internal/models"
)

// TransitionAction is an admin-requested session state change.
type TransitionAction string

const (
	ActionTempClose TransitionAction = "TEMP_CLOSE"
	ActionPermClose TransitionAction = "PERM_CLOSE"
	ActionReopen    TransitionAction = "REOPEN"
)

// SessionManager owns the drive-session lifecycle for rounds.
type SessionManager struct {
	orm *gorm.DB
}

func NewSessionManager(orm *gorm.DB) (*SessionManager, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	return &SessionManager{orm: orm}, nil
}

// nextStatus is the transition table: ACTIVE -> TEMP_CLOSED -> ACTIVE via
// reopen, and ACTIVE/TEMP_CLOSED -> PERM_CLOSED which is terminal.
func nextStatus(from models.SessionStatus, action TransitionAction) (models.SessionStatus, error) {
	switch action {
	case ActionTempClose:
		if from == models.SessionActive {
			return models.SessionTempClosed, nil
		}
	case ActionReopen:
		if from == models.SessionTempClosed {
			return models.SessionActive, nil
		}
	case ActionPermClose:
		if from == models.SessionActive || from == models.SessionTempClosed {
			return models.SessionPermClosed, nil
		}
	}
	return "", &InvalidTransitionError{From: from, Action: action}
}

// Start opens a new ACTIVE session for the round. It fails if the round is
// removed, if an ACTIVE session already exists, or if any session for the
// round has ever been permanently closed.
func (m *SessionManager) Start(ctx context.Context, roundID uuid.UUID, createdBy string) (models.DriveSession, error) {
	var round models.Round
	if err := m.orm.WithContext(ctx).First(&round, "id = ?", roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DriveSession{}, ErrRoundRemoved
		}
		return models.DriveSession{}, err
	}
	if round.IsRemoved {
		return models.DriveSession{}, ErrRoundRemoved
	}

	var permClosed int64
	if err := m.orm.WithContext(ctx).
		Model(&models.DriveSession{}).
		Where("round_id = ? AND status = ?", roundID, models.SessionPermClosed).
		Count(&permClosed).Error; err != nil {
		return models.DriveSession{}, err
	}
	if permClosed > 0 {
		return models.DriveSession{}, ErrRoundPermanentlyClosed
	}

	var active int64
	if err := m.orm.WithContext(ctx).
		Model(&models.DriveSession{}).
		Where("round_id = ? AND status = ?", roundID, models.SessionActive).
		Count(&active).Error; err != nil {
		return models.DriveSession{}, err
	}
	if active > 0 {
		return models.DriveSession{}, ErrActiveSessionExists
	}

	session := models.DriveSession{
		ID:        uuid.New(),
		RoundID:   round.ID,
		JobID:     round.JobID,
		Status:    models.SessionActive,
		StartedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}
	if err := m.orm.WithContext(ctx).Create(&session).Error; err != nil {
		// The partial unique index catches the race two concurrent starts
		// would otherwise win together.
		if isUniqueViolation(err) {
			return models.DriveSession{}, ErrActiveSessionExists
		}
		return models.DriveSession{}, err
	}
	return session, nil
}

// Transition applies action to the session. The update is a compare-and-swap
// on the current status, so a concurrent admin action loses cleanly instead
// of clobbering state.
func (m *SessionManager) Transition(ctx context.Context, sessionID uuid.UUID, action TransitionAction) (models.DriveSession, error) {
	var session models.DriveSession
	if err := m.orm.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DriveSession{}, ErrSessionNotFound
		}
		return models.DriveSession{}, err
	}

	to, err := nextStatus(session.Status, action)
	if err != nil {
		return models.DriveSession{}, err
	}

	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	if to == models.SessionPermClosed {
		endedAt := time.Now().UTC()
		updates["ended_at"] = endedAt
	}

	res := m.orm.WithContext(ctx).
		Model(&models.DriveSession{}).
		Where("id = ? AND status = ?", session.ID, session.Status).
		Updates(updates)
	if res.Error != nil {
		// Reopening collides with the one-ACTIVE index when another session
		// was started for the round after this one was temp-closed.
		if isUniqueViolation(res.Error) {
			return models.DriveSession{}, ErrActiveSessionExists
		}
		return models.DriveSession{}, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race with another transition; report against current state.
		if err := m.orm.WithContext(ctx).First(&session, "id = ?", session.ID).Error; err != nil {
			return models.DriveSession{}, err
		}
		return models.DriveSession{}, &InvalidTransitionError{From: session.Status, Action: action}
	}

	if err := m.orm.WithContext(ctx).First(&session, "id = ?", session.ID).Error; err != nil {
		return models.DriveSession{}, err
	}
	return session, nil
}

// Get resolves a session by id.
func (m *SessionManager) Get(ctx context.Context, sessionID uuid.UUID) (models.DriveSession, error) {
	var session models.DriveSession
	if err := m.orm.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DriveSession{}, ErrSessionNotFound
		}
		return models.DriveSession{}, err
	}
	return session, nil
}

// List returns sessions, newest first, optionally filtered by round.
func (m *SessionManager) List(ctx context.Context, roundID *uuid.UUID) ([]models.DriveSession, error) {
	q := m.orm.WithContext(ctx).Model(&models.DriveSession{}).Order("started_at DESC")
	if roundID != nil {
		q = q.Where("round_id = ?", *roundID)
	}
	var sessions []models.DriveSession
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
