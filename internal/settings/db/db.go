package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wedding-rsvp/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SettingsRow keeps the whole settings document in one JSON column.
type SettingsRow struct {
	bun.BaseModel `bun:"table:settings"`

	ID        string          `bun:"id,pk"`
	Document  models.Settings `bun:"document,type:jsonb,notnull"`
	CreatedAt time.Time       `bun:"created_at,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().Model((*SettingsRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	return nil
}

func (d *DB) Get(ctx context.Context) (*models.Settings, error) {
	row := new(SettingsRow)
	err := d.Bun.NewSelect().Model(row).Order("created_at ASC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := row.Document
	out.ID = row.ID
	out.CreatedAt = row.CreatedAt
	out.UpdatedAt = row.UpdatedAt
	return &out, nil
}

// Create inserts the document unless one is already stored. The check and
// the insert share a transaction.
func (d *DB) Create(ctx context.Context, s *models.Settings) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		n, err := tx.NewSelect().Model((*SettingsRow)(nil)).Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return models.ErrSettingsAlreadyExist
		}

		row := &SettingsRow{
			ID:        uuid.New().String(),
			Document:  *s,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return err
		}
		s.ID = row.ID
		return nil
	})
}

func (d *DB) Update(ctx context.Context, s *models.Settings) error {
	row := &SettingsRow{
		ID:        s.ID,
		Document:  *s,
		UpdatedAt: s.UpdatedAt,
	}
	result, err := d.Bun.NewUpdate().
		Model(row).
		Column("document", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
