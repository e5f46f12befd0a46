// README: Booking persistence contracts and the PostgreSQL implementation.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vahan/internal/types"
)

type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	// Save writes all mutable fields guarded by StatusVersion; returns
	// false when another writer committed first. On success the in-memory
	// version is bumped to match the row.
	Save(ctx context.Context, b *Booking) (bool, error)
	ListByParent(ctx context.Context, parentID types.ID) ([]*Booking, error)
	HasActiveByDriver(ctx context.Context, driverID types.ID) (bool, error)
	ActiveByRider(ctx context.Context, riderID types.ID) ([]*Booking, error)
	ActiveByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error)
	// PendingByClass lists unassigned PENDING bookings of a class whose
	// passenger count fits within capacity.
	PendingByClass(ctx context.Context, class types.VehicleClass, capacity int) ([]*Booking, error)
	// HasOverlap reports a PENDING or ACCEPTED booking holding vehicleID
	// over a [start, end) window that intersects the given one.
	HasOverlap(ctx context.Context, vehicleID types.ID, start, end time.Time) (bool, error)
	SumCompletedRemaining(ctx context.Context, driverID types.ID, from, to time.Time) (types.Money, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const bookingColumns = `
	id, rider_id, vehicle_id, driver_id, class,
	pickup_lat, pickup_lng, pickup_label, drop_lat, drop_lng, drop_label,
	trip_type, passengers, quantity, start_at, end_at,
	estimated_km, min_estimate, max_estimate, actual_price,
	platform_charge, remaining_amount, total_amount,
	payment_required, payment_completed, is_wedding, is_shared,
	ride_otp, status, status_version, parent_id, created_at`

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30, $31, $32)`,
		bookingArgs(b)...)
	if err != nil {
		return err
	}
	for _, stop := range b.Stops {
		_, err = tx.Exec(ctx, `
			INSERT INTO booking_stops (booking_id, location, lat, lng, seq)
			VALUES ($1, $2, $3, $4, $5)`,
			string(b.ID), stop.Location, stop.Position.Lat, stop.Position.Lng, stop.Seq)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	b.Stops, err = s.stops(ctx, id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) Save(ctx context.Context, b *Booking) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET
			vehicle_id = $2, driver_id = $3, trip_type = $4,
			estimated_km = $5, min_estimate = $6, max_estimate = $7,
			actual_price = $8, platform_charge = $9,
			remaining_amount = $10, total_amount = $11,
			payment_required = $12, payment_completed = $13,
			status = $14, status_version = status_version + 1
		WHERE id = $1 AND status_version = $15`,
		string(b.ID), idArg(b.VehicleID), idArg(b.DriverID), string(b.TripType),
		b.EstimatedKm, int64(b.MinEstimate), int64(b.MaxEstimate),
		int64(b.ActualPrice), int64(b.PlatformCharge),
		int64(b.RemainingAmount), int64(b.TotalAmount),
		b.PaymentRequired, b.PaymentCompleted,
		string(b.Status), b.StatusVersion)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	b.StatusVersion++
	return true, nil
}

func (s *PGStore) ListByParent(ctx context.Context, parentID types.ID) ([]*Booking, error) {
	return s.list(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE parent_id = $1
		ORDER BY created_at`, string(parentID))
}

func (s *PGStore) HasActiveByDriver(ctx context.Context, driverID types.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE driver_id = $1 AND status IN ('ACCEPTED', 'RIDE_STARTED')
		)`, string(driverID)).Scan(&exists)
	return exists, err
}

func (s *PGStore) ActiveByRider(ctx context.Context, riderID types.ID) ([]*Booking, error) {
	return s.list(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE rider_id = $1 AND status IN ('ACCEPTED', 'RIDE_STARTED')
		ORDER BY created_at`, string(riderID))
}

func (s *PGStore) ActiveByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error) {
	return s.list(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE driver_id = $1 AND status IN ('ACCEPTED', 'RIDE_STARTED')
		ORDER BY created_at`, string(driverID))
}

func (s *PGStore) PendingByClass(ctx context.Context, class types.VehicleClass, capacity int) ([]*Booking, error) {
	return s.list(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'PENDING' AND vehicle_id IS NULL
		  AND class = $1 AND passengers <= $2
		ORDER BY created_at`, string(class), capacity)
}

func (s *PGStore) HasOverlap(ctx context.Context, vehicleID types.ID, start, end time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE vehicle_id = $1 AND status IN ('PENDING', 'ACCEPTED')
			  AND start_at < $3 AND end_at > $2
		)`, string(vehicleID), start, end).Scan(&exists)
	return exists, err
}

func (s *PGStore) SumCompletedRemaining(ctx context.Context, driverID types.ID, from, to time.Time) (types.Money, error) {
	var sum int64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(remaining_amount), 0)
		FROM bookings
		WHERE driver_id = $1 AND status = 'COMPLETED'
		  AND created_at >= $2 AND created_at < $3`,
		string(driverID), from, to).Scan(&sum)
	return types.Money(sum), err
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range out {
		if b.Stops, err = s.stops(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PGStore) stops(ctx context.Context, bookingID types.ID) ([]Stop, error) {
	rows, err := s.db.Query(ctx, `
		SELECT location, lat, lng, seq
		FROM booking_stops
		WHERE booking_id = $1
		ORDER BY seq`, string(bookingID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stop
	for rows.Next() {
		var st Stop
		if err := rows.Scan(&st.Location, &st.Position.Lat, &st.Position.Lng, &st.Seq); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func bookingArgs(b *Booking) []any {
	return []any{
		string(b.ID), string(b.RiderID), idArg(b.VehicleID), idArg(b.DriverID), string(b.Class),
		b.Pickup.Lat, b.Pickup.Lng, b.PickupLabel, b.Drop.Lat, b.Drop.Lng, b.DropLabel,
		string(b.TripType), b.Passengers, b.Quantity, b.StartAt, b.EndAt,
		b.EstimatedKm, int64(b.MinEstimate), int64(b.MaxEstimate), int64(b.ActualPrice),
		int64(b.PlatformCharge), int64(b.RemainingAmount), int64(b.TotalAmount),
		b.PaymentRequired, b.PaymentCompleted, b.Wedding, b.Shared,
		b.RideOTP, string(b.Status), b.StatusVersion, idArg(b.ParentID), b.CreatedAt,
	}
}

func idArg(id *types.ID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var vehicleID, driverID, parentID sql.NullString
	var minEst, maxEst, actual, charge, remaining, total int64

	err := row.Scan(
		&b.ID, &b.RiderID, &vehicleID, &driverID, &b.Class,
		&b.Pickup.Lat, &b.Pickup.Lng, &b.PickupLabel, &b.Drop.Lat, &b.Drop.Lng, &b.DropLabel,
		&b.TripType, &b.Passengers, &b.Quantity, &b.StartAt, &b.EndAt,
		&b.EstimatedKm, &minEst, &maxEst, &actual,
		&charge, &remaining, &total,
		&b.PaymentRequired, &b.PaymentCompleted, &b.Wedding, &b.Shared,
		&b.RideOTP, &b.Status, &b.StatusVersion, &parentID, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.MinEstimate = types.Money(minEst)
	b.MaxEstimate = types.Money(maxEst)
	b.ActualPrice = types.Money(actual)
	b.PlatformCharge = types.Money(charge)
	b.RemainingAmount = types.Money(remaining)
	b.TotalAmount = types.Money(total)
	if vehicleID.Valid {
		v := types.ID(vehicleID.String)
		b.VehicleID = &v
	}
	if driverID.Valid {
		d := types.ID(driverID.String)
		b.DriverID = &d
	}
	if parentID.Valid {
		p := types.ID(parentID.String)
		b.ParentID = &p
	}
	return &b, nil
}
