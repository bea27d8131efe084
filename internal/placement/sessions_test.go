package placement

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"placementd/internal/models"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    models.SessionStatus
		action  TransitionAction
		want    models.SessionStatus
		wantErr bool
	}{
		{name: "temp close from active", from: models.SessionActive, action: ActionTempClose, want: models.SessionTempClosed},
		{name: "reopen from temp closed", from: models.SessionTempClosed, action: ActionReopen, want: models.SessionActive},
		{name: "perm close from active", from: models.SessionActive, action: ActionPermClose, want: models.SessionPermClosed},
		{name: "perm close from temp closed", from: models.SessionTempClosed, action: ActionPermClose, want: models.SessionPermClosed},
		{name: "reopen from active", from: models.SessionActive, action: ActionReopen, wantErr: true},
		{name: "temp close from temp closed", from: models.SessionTempClosed, action: ActionTempClose, wantErr: true},
		{name: "temp close from perm closed", from: models.SessionPermClosed, action: ActionTempClose, wantErr: true},
		{name: "reopen from perm closed", from: models.SessionPermClosed, action: ActionReopen, wantErr: true},
		{name: "perm close twice", from: models.SessionPermClosed, action: ActionPermClose, wantErr: true},
		{name: "unknown action", from: models.SessionActive, action: TransitionAction("PAUSE"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextStatus(tt.from, tt.action)
			if tt.wantErr {
				var invalid *InvalidTransitionError
				if !errors.As(err, &invalid) {
					t.Fatalf("nextStatus() error = %v, want InvalidTransitionError", err)
				}
				if invalid.From != tt.from || invalid.Action != tt.action {
					t.Fatalf("InvalidTransitionError = %+v, want from %s action %s", invalid, tt.from, tt.action)
				}
				return
			}
			if err != nil {
				t.Fatalf("nextStatus() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("nextStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			// A reopen racing another ACTIVE session surfaces as 23505 from
			// the partial index and must map to ErrActiveSessionExists, not
			// a raw database error.
			name: "unique violation",
			err:  &pgconn.PgError{Code: "23505"},
			want: true,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("update session: %w", &pgconn.PgError{Code: "23505"}),
			want: true,
		},
		{
			name: "other pg error",
			err:  &pgconn.PgError{Code: "23503"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
