package placement

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"placementd/internal/models"
)

func TestParseLegacyScan(t *testing.T) {
	appID := uuid.MustParse("3f1d2c4b-9a8e-4f6d-b1c2-0a9e8d7c6b5a")

	tests := []struct {
		name    string
		raw     string
		wantID  uuid.UUID
		wantKey string
		wantErr bool
	}{
		{
			name:   "json hall ticket",
			raw:    `{"applicationId": "3f1d2c4b-9a8e-4f6d-b1c2-0a9e8d7c6b5a"}`,
			wantID: appID,
		},
		{
			name:   "json with surrounding whitespace",
			raw:    "  {\"applicationId\": \"3f1d2c4b-9a8e-4f6d-b1c2-0a9e8d7c6b5a\"}\n",
			wantID: appID,
		},
		{
			name:   "bare uuid",
			raw:    "3f1d2c4b-9a8e-4f6d-b1c2-0a9e8d7c6b5a",
			wantID: appID,
		},
		{
			name:    "bare identifier",
			raw:     "PLC-2024-00417",
			wantKey: "PLC-2024-00417",
		},
		{
			name:    "json with bad uuid",
			raw:     `{"applicationId": "not-a-uuid"}`,
			wantErr: true,
		},
		{
			name:    "json missing field",
			raw:     `{"something": "else"}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `{"applicationId": `,
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan, err := parseLegacyScan(tt.raw)
			if tt.wantErr {
				if err != ErrApplicationNotFound {
					t.Fatalf("expected ErrApplicationNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scan.ApplicationID != tt.wantID {
				t.Errorf("application id = %s, want %s", scan.ApplicationID, tt.wantID)
			}
			if scan.Identifier != tt.wantKey {
				t.Errorf("identifier = %q, want %q", scan.Identifier, tt.wantKey)
			}
		})
	}
}

func TestClassifyLegacyRecord(t *testing.T) {
	scanned := time.Now().UTC()

	tests := []struct {
		name     string
		existing *models.LegacyAttendance
		want     legacyDisposition
	}{
		{
			name:     "no record yet",
			existing: nil,
			want:     legacyCreate,
		},
		{
			// Bulk imports pre-create rows without a scan time. Scanning one
			// must record the scan, not report a prior visit.
			name:     "pre-loaded record never scanned",
			existing: &models.LegacyAttendance{ID: uuid.New()},
			want:     legacyClaim,
		},
		{
			name:     "record with scan time",
			existing: &models.LegacyAttendance{ID: uuid.New(), ScannedAt: &scanned},
			want:     legacyAlready,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyLegacyRecord(tt.existing); got != tt.want {
				t.Errorf("classifyLegacyRecord() = %d, want %d", got, tt.want)
			}
		})
	}
}
