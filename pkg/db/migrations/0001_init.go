package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type Job struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Company   string     `gorm:"type:text;not null"`
	Title     string     `gorm:"type:text;not null"`
	IsRemoved bool       `gorm:"not null;default:false"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time  `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Application struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_job"`
	JobID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_job"`
	LegacyIdentifier string    `gorm:"type:text;index"`
	IsRemoved        bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Job              Job       `gorm:"foreignKey:JobID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type StudentProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string    `gorm:"type:text;not null"`
	Email     string    `gorm:"type:text;uniqueIndex;not null"`
	PhotoKey  string    `gorm:"type:text"`
	KycStatus string    `gorm:"type:text;not null;default:'PENDING'"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Round struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	SortOrder int       `gorm:"not null"`
	IsRemoved bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Job       Job       `gorm:"foreignKey:JobID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type DriveSession struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoundID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	JobID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status    string     `gorm:"type:text;not null"`
	StartedAt time.Time  `gorm:"type:timestamptz;not null"`
	EndedAt   *time.Time `gorm:"type:timestamptz"`
	CreatedBy string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time  `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Round     Round      `gorm:"foreignKey:RoundID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type RoundAttendance struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_round_attendances_user_round"`
	RoundID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_round_attendances_user_round"`
	JobID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	SessionID *uuid.UUID `gorm:"type:uuid"`
	Status    string     `gorm:"type:text;not null"`
	MarkedAt  time.Time  `gorm:"type:timestamptz;not null"`
	Round     Round      `gorm:"foreignKey:RoundID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type LegacyAttendance struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationID uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	JobID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	Location      string            `gorm:"type:text"`
	Extra         datatypes.JSONMap `gorm:"type:jsonb"`
	ScannedAt     *time.Time        `gorm:"type:timestamptz"`
	CreatedAt     time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&Job{},
		&Application{},
		&StudentProfile{},
		&Round{},
		&DriveSession{},
		&RoundAttendance{},
		&LegacyAttendance{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Application{}, "Job"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Round{}, "Job"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&DriveSession{}, "Round"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&RoundAttendance{}, "Round"); err != nil {
		return err
	}

	// One ACTIVE drive session per round, enforced by the database so the
	// invariant survives concurrent transitions and multiple service instances.
	if err := gormDB.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_drive_sessions_one_active
		 ON drive_sessions (round_id) WHERE status = 'ACTIVE'`,
	).Error; err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().DropTable(
		&LegacyAttendance{},
		&RoundAttendance{},
		&DriveSession{},
		&Round{},
		&StudentProfile{},
		&Application{},
		&Job{},
	); err != nil {
		return err
	}

	return nil
}
