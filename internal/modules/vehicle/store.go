// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vahan/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const vehicleColumns = `
	id, owner_id, assigned_driver_id, class, model, number_plate,
	capacity, price_per_km, price_per_hour, price_per_day, is_available`

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE id = $1`, string(id))
	return scanVehicle(row)
}

func (s *PGStore) ListAvailableByClass(ctx context.Context, class types.VehicleClass) ([]*Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE class = $1 AND is_available`, string(class))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

func (s *PGStore) ListByDriver(ctx context.Context, driverID types.ID) ([]*Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE owner_id = $1 OR assigned_driver_id = $1`, string(driverID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*Vehicle, error) {
	var v Vehicle
	var assignedDriver sql.NullString
	var perKm, perHour, perDay sql.NullInt64

	err := row.Scan(
		&v.ID, &v.OwnerID, &assignedDriver, &v.Class, &v.Model, &v.NumberPlate,
		&v.Capacity, &perKm, &perHour, &perDay, &v.Available,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if assignedDriver.Valid && assignedDriver.String != "" {
		d := types.ID(assignedDriver.String)
		v.AssignedDriverID = &d
	}
	if perKm.Valid {
		v.PricePerKm = types.Money(perKm.Int64)
	}
	if perHour.Valid {
		v.PricePerHour = types.Money(perHour.Int64)
	}
	if perDay.Valid {
		v.PricePerDay = types.Money(perDay.Int64)
	}
	return &v, nil
}

func collectVehicles(rows pgx.Rows) ([]*Vehicle, error) {
	var out []*Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
