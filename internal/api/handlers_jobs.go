package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"placementd/pkg/db"
)

// jobRow is the read model for job listings, including the live application
// count. Reads go through pgx directly; writes stay on the ORM.
type jobRow struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Company      string    `json:"company" db:"company"`
	Title        string    `json:"title" db:"title"`
	Applications int64     `json:"applications" db:"applications"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type attendanceRow struct {
	AttendanceID uuid.UUID `json:"attendance_id" db:"attendance_id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	FullName     string    `json:"full_name" db:"full_name"`
	RoundID      uuid.UUID `json:"round_id" db:"round_id"`
	RoundName    string    `json:"round_name" db:"round_name"`
	Status       string    `json:"status" db:"status"`
	MarkedAt     time.Time `json:"marked_at" db:"marked_at"`
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var jobs []jobRow
	err := db.Select(r.Context(), a.store.DB, &jobs, `
		SELECT j.id, j.company, j.title, j.created_at,
		       COUNT(ap.id) FILTER (WHERE NOT ap.is_removed) AS applications
		FROM jobs j
		LEFT JOIN applications ap ON ap.job_id = j.id
		WHERE NOT j.is_removed
		GROUP BY j.id
		ORDER BY j.created_at DESC`)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid job id"))
		return
	}

	var job jobRow
	err = db.Get(r.Context(), a.store.DB, &job, `
		SELECT j.id, j.company, j.title, j.created_at,
		       COUNT(ap.id) FILTER (WHERE NOT ap.is_removed) AS applications
		FROM jobs j
		LEFT JOIN applications ap ON ap.job_id = j.id
		WHERE j.id = $1 AND NOT j.is_removed
		GROUP BY j.id`, jobID)
	if err != nil {
		if pgxscan.NotFound(err) {
			respondError(w, http.StatusNotFound, errors.New("job not found"))
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"job": job})
}

// handleJobAttendance lists recorded attendance for a job, optionally
// filtered to one round, joined with student and round names for report
// export.
func (a *API) handleJobAttendance(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid job id"))
		return
	}

	query := `
		SELECT ra.id AS attendance_id, ra.user_id,
		       COALESCE(sp.full_name, '') AS full_name,
		       ra.round_id, ro.name AS round_name, ra.status, ra.marked_at
		FROM round_attendances ra
		JOIN rounds ro ON ro.id = ra.round_id
		LEFT JOIN student_profiles sp ON sp.user_id = ra.user_id
		WHERE ra.job_id = $1`
	args := []any{jobID}

	if raw := r.URL.Query().Get("round_id"); raw != "" {
		roundID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("invalid round_id"))
			return
		}
		query += ` AND ra.round_id = $2`
		args = append(args, roundID)
	}
	query += ` ORDER BY ra.marked_at DESC`

	var rows []attendanceRow
	if err := db.Select(r.Context(), a.store.DB, &rows, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"attendance": rows})
}
