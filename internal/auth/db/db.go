package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wedding-rsvp/internal/database"
	"wedding-rsvp/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AdminUserRow struct {
	bun.BaseModel `bun:"table:admin_users"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().Model((*AdminUserRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create admin_users table: %w", err)
	}
	return nil
}

func (d *DB) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	row := new(AdminUserRow)
	err := d.Bun.NewSelect().
		Model(row).
		Where("username = ?", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.AdminUser{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Email:        row.Email,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (d *DB) Create(ctx context.Context, user *models.AdminUser) error {
	row := &AdminUserRow{
		ID:           uuid.New().String(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Email:        user.Email,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if _, err := d.Bun.NewInsert().Model(row).Exec(ctx); err != nil {
		if database.IsUniqueViolation(err) {
			return models.ErrDuplicateAdmin
		}
		return err
	}
	user.ID = row.ID
	return nil
}
