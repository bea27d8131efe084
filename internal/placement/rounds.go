package placement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"placementd/internal/models"
)

// RoundStore manages the ordered, soft-deletable rounds of a job.
type RoundStore struct {
	orm *gorm.DB
}

func NewRoundStore(orm *gorm.DB) (*RoundStore, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	return &RoundStore{orm: orm}, nil
}

// placeOrder decides where a new round lands given the sort orders of the
// job's active rounds. requested <= 0 appends; a requested slot beyond the
// end is clamped to the end; an occupied slot requires shifting the rounds
// at and after it up by one.
func placeOrder(active []int, requested int) (order int, shift bool) {
	max := 0
	occupied := false
	for _, o := range active {
		if o > max {
			max = o
		}
		if o == requested {
			occupied = true
		}
	}
	if requested <= 0 || requested > max+1 {
		return max + 1, false
	}
	return requested, occupied
}

// List returns the job's rounds ordered by sort order. Removed rounds are
// included only when includeRemoved is set.
func (s *RoundStore) List(ctx context.Context, jobID uuid.UUID, includeRemoved bool) ([]models.Round, error) {
	q := s.orm.WithContext(ctx).Where("job_id = ?", jobID).Order("sort_order ASC")
	if !includeRemoved {
		q = q.Where("is_removed = ?", false)
	}
	var rounds []models.Round
	if err := q.Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

// Get resolves a round by id, removed or not.
func (s *RoundStore) Get(ctx context.Context, roundID uuid.UUID) (models.Round, error) {
	var round models.Round
	if err := s.orm.WithContext(ctx).First(&round, "id = ?", roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Round{}, ErrRoundRemoved
		}
		return models.Round{}, err
	}
	return round, nil
}

// Create inserts a round at the requested sort order, shifting subsequent
// active rounds up by one in the same transaction.
func (s *RoundStore) Create(ctx context.Context, jobID uuid.UUID, name string, requestedOrder int) (models.Round, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Round{}, errors.New("round name is required")
	}

	var job models.Job
	if err := s.orm.WithContext(ctx).First(&job, "id = ? AND is_removed = ?", jobID, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Round{}, gorm.ErrRecordNotFound
		}
		return models.Round{}, err
	}

	round := models.Round{ID: uuid.New(), JobID: jobID, Name: name}

	err := s.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders []int
		if err := tx.Model(&models.Round{}).
			Where("job_id = ? AND is_removed = ?", jobID, false).
			Pluck("sort_order", &orders).Error; err != nil {
			return err
		}

		order, shift := placeOrder(orders, requestedOrder)
		if shift {
			if err := tx.Model(&models.Round{}).
				Where("job_id = ? AND is_removed = ? AND sort_order >= ?", jobID, false, order).
				Update("sort_order", gorm.Expr("sort_order + 1")).Error; err != nil {
				return err
			}
		}

		round.SortOrder = order
		return tx.Create(&round).Error
	})
	if err != nil {
		return models.Round{}, err
	}
	return round, nil
}

// Rename changes the round's display name.
func (s *RoundStore) Rename(ctx context.Context, roundID uuid.UUID, name string) (models.Round, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Round{}, errors.New("round name is required")
	}

	round, err := s.Get(ctx, roundID)
	if err != nil {
		return models.Round{}, err
	}

	if err := s.orm.WithContext(ctx).Model(&round).
		Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()}).Error; err != nil {
		return models.Round{}, err
	}
	round.Name = name
	return round, nil
}

// Remove soft-deletes a round. Removal is rejected while an ACTIVE drive
// session exists for it.
func (s *RoundStore) Remove(ctx context.Context, roundID uuid.UUID) (models.Round, error) {
	round, err := s.Get(ctx, roundID)
	if err != nil {
		return models.Round{}, err
	}
	if round.IsRemoved {
		return round, nil
	}

	var active int64
	if err := s.orm.WithContext(ctx).
		Model(&models.DriveSession{}).
		Where("round_id = ? AND status = ?", roundID, models.SessionActive).
		Count(&active).Error; err != nil {
		return models.Round{}, err
	}
	if active > 0 {
		return models.Round{}, ErrActiveSessionExists
	}

	if err := s.orm.WithContext(ctx).Model(&round).
		Updates(map[string]any{"is_removed": true, "updated_at": time.Now().UTC()}).Error; err != nil {
		return models.Round{}, err
	}
	round.IsRemoved = true
	return round, nil
}

// Restore brings a soft-removed round back.
func (s *RoundStore) Restore(ctx context.Context, roundID uuid.UUID) (models.Round, error) {
	round, err := s.Get(ctx, roundID)
	if err != nil {
		return models.Round{}, err
	}
	if !round.IsRemoved {
		return round, nil
	}

	if err := s.orm.WithContext(ctx).Model(&round).
		Updates(map[string]any{"is_removed": false, "updated_at": time.Now().UTC()}).Error; err != nil {
		return models.Round{}, err
	}
	round.IsRemoved = false
	return round, nil
}

// Reorder moves a round to a new sort order, shifting the rounds between the
// old and new positions by one in the same transaction.
func (s *RoundStore) Reorder(ctx context.Context, roundID uuid.UUID, newOrder int) (models.Round, error) {
	round, err := s.Get(ctx, roundID)
	if err != nil {
		return models.Round{}, err
	}
	if round.IsRemoved {
		return models.Round{}, ErrRoundRemoved
	}

	err = s.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&models.Round{}).
			Where("job_id = ? AND is_removed = ?", round.JobID, false).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		target := clampOrder(newOrder, maxOrder)
		if target == round.SortOrder {
			return nil
		}

		if target < round.SortOrder {
			if err := tx.Model(&models.Round{}).
				Where("job_id = ? AND is_removed = ? AND sort_order >= ? AND sort_order < ?",
					round.JobID, false, target, round.SortOrder).
				Update("sort_order", gorm.Expr("sort_order + 1")).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.Round{}).
				Where("job_id = ? AND is_removed = ? AND sort_order > ? AND sort_order <= ?",
					round.JobID, false, round.SortOrder, target).
				Update("sort_order", gorm.Expr("sort_order - 1")).Error; err != nil {
				return err
			}
		}

		round.SortOrder = target
		return tx.Model(&models.Round{}).Where("id = ?", round.ID).
			Updates(map[string]any{"sort_order": target, "updated_at": time.Now().UTC()}).Error
	})
	if err != nil {
		return models.Round{}, err
	}
	return round, nil
}

func clampOrder(requested, max int) int {
	if requested < 1 {
		return 1
	}
	if requested > max {
		return max
	}
	return requested
}
