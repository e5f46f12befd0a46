// README: Passenger verification rows in PostgreSQL.
package booking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vahan/internal/types"
)

type PGVerificationStore struct {
	db *pgxpool.Pool
}

func NewPGVerificationStore(db *pgxpool.Pool) *PGVerificationStore {
	return &PGVerificationStore{db: db}
}

const verificationColumns = `
	id, booking_id, passenger_id, pickup_otp, drop_otp,
	pickup_verified, pickup_verified_at, drop_verified, drop_verified_at`

func (s *PGVerificationStore) Create(ctx context.Context, v *PassengerVerification) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO passenger_verifications (`+verificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(v.ID), string(v.BookingID), string(v.PassengerID),
		v.PickupOTP, v.DropOTP,
		v.PickupVerified, v.PickupVerifiedAt, v.DropVerified, v.DropVerifiedAt)
	return err
}

func (s *PGVerificationStore) ListByBooking(ctx context.Context, bookingID types.ID) ([]*PassengerVerification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+verificationColumns+`
		FROM passenger_verifications
		WHERE booking_id = $1`, string(bookingID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PassengerVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PGVerificationStore) GetByBookingAndPassenger(ctx context.Context, bookingID, passengerID types.ID) (*PassengerVerification, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+verificationColumns+`
		FROM passenger_verifications
		WHERE booking_id = $1 AND passenger_id = $2`,
		string(bookingID), string(passengerID))
	return scanVerification(row)
}

func (s *PGVerificationStore) Update(ctx context.Context, v *PassengerVerification) error {
	_, err := s.db.Exec(ctx, `
		UPDATE passenger_verifications SET
			pickup_verified = $2, pickup_verified_at = $3,
			drop_verified = $4, drop_verified_at = $5
		WHERE id = $1`,
		string(v.ID), v.PickupVerified, v.PickupVerifiedAt, v.DropVerified, v.DropVerifiedAt)
	return err
}

func scanVerification(row rowScanner) (*PassengerVerification, error) {
	var v PassengerVerification
	err := row.Scan(
		&v.ID, &v.BookingID, &v.PassengerID, &v.PickupOTP, &v.DropOTP,
		&v.PickupVerified, &v.PickupVerifiedAt, &v.DropVerified, &v.DropVerifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
