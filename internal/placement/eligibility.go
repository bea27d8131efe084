package placement

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"placementd/internal/models"
)

// Eligibility is the outcome of a passing check. Already is non-nil when the
// student has a record for the target round, meaning this scan is a
// duplicate rather than a first check-in.
type Eligibility struct {
	Student models.StudentProfile
	Round   models.Round
	Job     models.Job
	Session models.DriveSession
	Already *models.RoundAttendance
}

// Validator answers whether a student may check into a round right now.
type Validator struct {
	orm      *gorm.DB
	sessions *SessionManager
}

func NewValidator(orm *gorm.DB, sessions *SessionManager) (*Validator, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	return &Validator{orm: orm, sessions: sessions}, nil
}

// checkPrerequisites walks the job's active rounds in order and requires a
// non-FAILED attendance record for every round before the target. It stops
// at the first blocking round.
func checkPrerequisites(rounds []models.Round, marks []models.RoundAttendance, target models.Round) error {
	byRound := make(map[uuid.UUID]models.RoundAttendance, len(marks))
	for _, m := range marks {
		byRound[m.RoundID] = m
	}

	ordered := make([]models.Round, 0, len(rounds))
	for _, r := range rounds {
		if !r.IsRemoved && r.SortOrder < target.SortOrder {
			ordered = append(ordered, r)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	for _, r := range ordered {
		mark, ok := byRound[r.ID]
		if !ok {
			return &PrerequisiteError{RoundID: r.ID, RoundName: r.Name}
		}
		if mark.Status == models.AttendanceFailed {
			return &PrerequisiteError{RoundID: r.ID, RoundName: r.Name, Failed: true}
		}
	}
	return nil
}

// Check validates a (student, job, round, session) tuple in the order the
// operator message should surface problems: session state, application
// membership, KYC, prerequisite chain, then duplicate detection.
func (v *Validator) Check(ctx context.Context, userID, jobID, roundID, sessionID uuid.UUID) (Eligibility, error) {
	session, err := v.sessions.Get(ctx, sessionID)
	if err != nil {
		return Eligibility{}, err
	}
	if session.RoundID != roundID {
		return Eligibility{}, ErrSessionNotFound
	}
	if session.Status != models.SessionActive {
		return Eligibility{}, &SessionNotActiveError{Status: session.Status}
	}

	var application models.Application
	err = v.orm.WithContext(ctx).
		First(&application, "user_id = ? AND job_id = ? AND is_removed = ?", userID, jobID, false).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Eligibility{}, ErrNotApplied
		}
		return Eligibility{}, err
	}

	var student models.StudentProfile
	if err := v.orm.WithContext(ctx).First(&student, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Eligibility{}, ErrKycNotVerified
		}
		return Eligibility{}, err
	}
	if student.KycStatus != models.KycVerified {
		return Eligibility{}, ErrKycNotVerified
	}

	var rounds []models.Round
	if err := v.orm.WithContext(ctx).
		Where("job_id = ? AND is_removed = ?", jobID, false).
		Order("sort_order ASC").
		Find(&rounds).Error; err != nil {
		return Eligibility{}, err
	}

	var target models.Round
	found := false
	for _, r := range rounds {
		if r.ID == roundID {
			target = r
			found = true
			break
		}
	}
	if !found {
		return Eligibility{}, ErrRoundRemoved
	}

	var marks []models.RoundAttendance
	if err := v.orm.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Find(&marks).Error; err != nil {
		return Eligibility{}, err
	}

	if err := checkPrerequisites(rounds, marks, target); err != nil {
		return Eligibility{}, err
	}

	var job models.Job
	if err := v.orm.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return Eligibility{}, err
	}

	elig := Eligibility{Student: student, Round: target, Job: job, Session: session}
	for i := range marks {
		if marks[i].RoundID == roundID {
			elig.Already = &marks[i]
			break
		}
	}
	return elig, nil
}
