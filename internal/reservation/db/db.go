package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wedding-rsvp/internal/database"
	"wedding-rsvp/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DB is the relational reservation store. Each control number is a row of
// control_numbers pointing at its reservation.
type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// CreateSchema creates the tables from the bun models. PostgreSQL
// deployments use the SQL migrations instead.
func (d *DB) CreateSchema(ctx context.Context) error {
	for _, model := range []interface{}{(*ReservationRow)(nil), (*ControlNumberRow)(nil)} {
		if _, err := d.Bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// ---------------- LOOKUPS ----------------

func (d *DB) FindByControlNumber(ctx context.Context, controlNumber string) (*models.Reservation, error) {
	var reservationID string
	err := d.Bun.NewSelect().
		Model((*ControlNumberRow)(nil)).
		Column("reservation_id").
		Where("control_number = ?", controlNumber).
		Limit(1).
		Scan(ctx, &reservationID)
	if err != nil {
		return nil, notFound(err)
	}
	return d.load(ctx, reservationID)
}

func (d *DB) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}
	return d.load(ctx, id)
}

func (d *DB) load(ctx context.Context, id string) (*models.Reservation, error) {
	row := new(ReservationRow)
	err := d.Bun.NewSelect().
		Model(row).
		Relation("ControlNumbers").
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return row.toModel(), nil
}

func (d *DB) List(ctx context.Context) ([]models.Reservation, error) {
	var rows []ReservationRow
	err := d.Bun.NewSelect().
		Model(&rows).
		Relation("ControlNumbers").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Reservation, len(rows))
	for i := range rows {
		out[i] = *rows[i].toModel()
	}
	return out, nil
}

// ---------------- SUBMISSION ----------------

// SubmitGuests is a single UPDATE guarded by submitted = false and the
// ceiling, so concurrent callers for one control number cannot both match.
func (d *DB) SubmitGuests(ctx context.Context, controlNumber string, guests []models.GuestInfo, at time.Time) (bool, error) {
	applied := false
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &ControlNumberRow{
			GuestInfo:   guests,
			Guests:      len(guests),
			Submitted:   true,
			SubmittedAt: &at,
		}
		result, err := tx.NewUpdate().
			Model(row).
			Column("guest_info", "guests", "submitted", "submitted_at").
			Where("control_number = ?", controlNumber).
			Where("submitted = ?", false).
			Where("max_guests >= ?", len(guests)).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		applied = true

		_, err = tx.NewUpdate().
			Model((*ReservationRow)(nil)).
			Set("updated_at = ?", at).
			Where("id = (?)", tx.NewSelect().
				Model((*ControlNumberRow)(nil)).
				Column("reservation_id").
				Where("control_number = ?", controlNumber)).
			Exec(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ---------------- ADMIN WRITES ----------------

func (d *DB) Create(ctx context.Context, res *models.Reservation) error {
	res.ID = uuid.New().String()
	row, cns := fromModel(res)

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return err
		}
		if len(cns) > 0 {
			if _, err := tx.NewInsert().Model(&cns).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if database.IsUniqueViolation(err) {
		return models.ErrDuplicateControlNumber
	}
	return err
}

// Update rewrites the reservation row and replaces its control numbers.
func (d *DB) Update(ctx context.Context, res *models.Reservation) error {
	if _, err := uuid.Parse(res.ID); err != nil {
		return models.ErrInvalidID
	}
	row, cns := fromModel(res)

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model(row).
			Column("submitted", "expiration_number", "distribution_number", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return models.ErrNotFound
		}

		if _, err := tx.NewDelete().
			Model((*ControlNumberRow)(nil)).
			Where("reservation_id = ?", res.ID).
			Exec(ctx); err != nil {
			return err
		}
		if len(cns) > 0 {
			if _, err := tx.NewInsert().Model(&cns).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if database.IsUniqueViolation(err) {
		return models.ErrDuplicateControlNumber
	}
	return err
}

func (d *DB) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidID
	}
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*ControlNumberRow)(nil)).
			Where("reservation_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		result, err := tx.NewDelete().
			Model((*ReservationRow)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}
