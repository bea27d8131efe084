package placement

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"placementd/internal/models"
)

func pipeline(jobID uuid.UUID, names ...string) []models.Round {
	rounds := make([]models.Round, len(names))
	for i, name := range names {
		rounds[i] = models.Round{ID: uuid.New(), JobID: jobID, Name: name, SortOrder: i + 1}
	}
	return rounds
}

func mark(userID uuid.UUID, round models.Round, status models.AttendanceStatus) models.RoundAttendance {
	return models.RoundAttendance{
		ID:       uuid.New(),
		UserID:   userID,
		RoundID:  round.ID,
		JobID:    round.JobID,
		Status:   status,
		MarkedAt: time.Now(),
	}
}

func TestCheckPrerequisites(t *testing.T) {
	jobID := uuid.New()
	userID := uuid.New()
	rounds := pipeline(jobID, "Written Test", "Group Discussion", "Interview")

	tests := []struct {
		name          string
		marks         []models.RoundAttendance
		target        models.Round
		wantBlocking  string
		wantFailed    bool
	}{
		{
			name:   "first round has no prerequisites",
			target: rounds[0],
		},
		{
			name:         "round two blocked by missing round one",
			target:       rounds[1],
			wantBlocking: "Written Test",
		},
		{
			name:         "round three reports first missing round only",
			target:       rounds[2],
			wantBlocking: "Written Test",
		},
		{
			name:   "round two open after attending round one",
			marks:  []models.RoundAttendance{mark(userID, rounds[0], models.AttendanceAttended)},
			target: rounds[1],
		},
		{
			name:         "failed round one blocks round two",
			marks:        []models.RoundAttendance{mark(userID, rounds[0], models.AttendanceFailed)},
			target:       rounds[1],
			wantBlocking: "Written Test",
			wantFailed:   true,
		},
		{
			name:         "failed round one blocks round three",
			marks:        []models.RoundAttendance{mark(userID, rounds[0], models.AttendanceFailed)},
			target:       rounds[2],
			wantBlocking: "Written Test",
			wantFailed:   true,
		},
		{
			name: "chain complete",
			marks: []models.RoundAttendance{
				mark(userID, rounds[0], models.AttendanceAttended),
				mark(userID, rounds[1], models.AttendanceAttended),
			},
			target: rounds[2],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPrerequisites(rounds, tt.marks, tt.target)
			if tt.wantBlocking == "" {
				if err != nil {
					t.Fatalf("checkPrerequisites() error = %v, want nil", err)
				}
				return
			}
			var prereq *PrerequisiteError
			if !errors.As(err, &prereq) {
				t.Fatalf("checkPrerequisites() error = %v, want PrerequisiteError", err)
			}
			if prereq.RoundName != tt.wantBlocking {
				t.Fatalf("blocking round = %q, want %q", prereq.RoundName, tt.wantBlocking)
			}
			if prereq.Failed != tt.wantFailed {
				t.Fatalf("Failed = %v, want %v", prereq.Failed, tt.wantFailed)
			}
		})
	}
}

func TestCheckPrerequisitesIgnoresRemovedRounds(t *testing.T) {
	jobID := uuid.New()
	rounds := pipeline(jobID, "Written Test", "Interview")
	rounds[0].IsRemoved = true

	if err := checkPrerequisites(rounds, nil, rounds[1]); err != nil {
		t.Fatalf("checkPrerequisites() error = %v, want removed round skipped", err)
	}
}
