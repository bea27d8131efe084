package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"placementd/internal/models"
)

type seedFixture struct {
	Jobs []struct {
		ID      uuid.UUID `yaml:"id"`
		Company string    `yaml:"company"`
		Title   string    `yaml:"title"`
		Rounds  []struct {
			ID   uuid.UUID `yaml:"id"`
			Name string    `yaml:"name"`
		} `yaml:"rounds"`
	} `yaml:"jobs"`
	Students []struct {
		UserID   uuid.UUID `yaml:"user_id"`
		FullName string    `yaml:"full_name"`
		Email    string    `yaml:"email"`
		PhotoKey string    `yaml:"photo_key"`
		Kyc      string    `yaml:"kyc_status"`
	} `yaml:"students"`
	Applications []struct {
		ID               uuid.UUID `yaml:"id"`
		UserID           uuid.UUID `yaml:"user_id"`
		JobID            uuid.UUID `yaml:"job_id"`
		LegacyIdentifier string    `yaml:"legacy_identifier"`
	} `yaml:"applications"`
}

type seedCounts struct {
	Jobs         int
	Rounds       int
	Students     int
	Applications int
}

// seedFromFile loads a YAML fixture and inserts the rows idempotently, so
// re-running the command against a populated database is safe.
func seedFromFile(ctx context.Context, orm *gorm.DB, path string) (seedCounts, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedCounts{}, err
	}

	var fixture seedFixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return seedCounts{}, fmt.Errorf("parse fixture: %w", err)
	}

	var counts seedCounts
	err = orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, j := range fixture.Jobs {
			job := models.Job{ID: j.ID, Company: j.Company, Title: j.Title}
			if job.ID == uuid.Nil {
				job.ID = uuid.New()
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&job).Error; err != nil {
				return err
			}
			counts.Jobs++

			for i, r := range j.Rounds {
				round := models.Round{ID: r.ID, JobID: job.ID, Name: r.Name, SortOrder: i + 1}
				if round.ID == uuid.Nil {
					round.ID = uuid.New()
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&round).Error; err != nil {
					return err
				}
				counts.Rounds++
			}
		}

		for _, s := range fixture.Students {
			kyc := models.KycStatus(s.Kyc)
			if kyc == "" {
				kyc = models.KycPending
			}
			profile := models.StudentProfile{
				UserID:    s.UserID,
				FullName:  s.FullName,
				Email:     s.Email,
				PhotoKey:  s.PhotoKey,
				KycStatus: kyc,
			}
			if profile.UserID == uuid.Nil {
				profile.UserID = uuid.New()
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
				return err
			}
			counts.Students++
		}

		for _, a := range fixture.Applications {
			app := models.Application{
				ID:               a.ID,
				UserID:           a.UserID,
				JobID:            a.JobID,
				LegacyIdentifier: a.LegacyIdentifier,
			}
			if app.ID == uuid.Nil {
				app.ID = uuid.New()
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&app).Error; err != nil {
				return err
			}
			counts.Applications++
		}

		return nil
	})
	if err != nil {
		return seedCounts{}, err
	}
	return counts, nil
}
