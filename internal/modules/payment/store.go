// README: Payment store backed by PostgreSQL.
package payment

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

const paymentColumns = `
	id, booking_id, driver_id, order_id, payment_id, signature,
	amount, status, reason, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, p *Payment) error {
	var bookingID, driverID any
	if p.BookingID != nil {
		bookingID = string(*p.BookingID)
	}
	if p.DriverID != nil {
		driverID = string(*p.DriverID)
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(p.ID), bookingID, driverID, p.OrderID, p.PaymentID, p.Signature,
		int64(p.Amount), string(p.Status), p.Reason, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PGStore) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1`, orderID)
	return scanPayment(row)
}

func (s *PGStore) Update(ctx context.Context, p *Payment) error {
	_, err := s.db.Exec(ctx, `
		UPDATE payments SET
			payment_id = $2, signature = $3, status = $4, reason = $5,
			updated_at = $6
		WHERE id = $1`,
		string(p.ID), p.PaymentID, p.Signature, string(p.Status), p.Reason, p.UpdatedAt)
	return err
}

func (s *PGStore) LatestByBooking(ctx context.Context, bookingID types.ID) (*Payment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, string(bookingID))
	return scanPayment(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	var p Payment
	var bookingID, driverID sql.NullString
	var amount int64

	err := row.Scan(
		&p.ID, &bookingID, &driverID, &p.OrderID, &p.PaymentID, &p.Signature,
		&amount, &p.Status, &p.Reason, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Amount = types.Money(amount)
	if bookingID.Valid {
		b := types.ID(bookingID.String)
		p.BookingID = &b
	}
	if driverID.Valid {
		d := types.ID(driverID.String)
		p.DriverID = &d
	}
	return &p, nil
}
