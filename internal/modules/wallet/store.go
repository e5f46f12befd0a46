// README: Wallet store backed by PostgreSQL.
package wallet

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

func (s *PGStore) Get(ctx context.Context, driverID types.ID) (*Wallet, error) {
	var w Wallet
	err := s.db.QueryRow(ctx, `
		SELECT driver_id, balance
		FROM wallets
		WHERE driver_id = $1`, string(driverID)).Scan(&w.DriverID, &w.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PGStore) Adjust(ctx context.Context, driverID types.ID, delta types.Money, entry Entry) (*Wallet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var w Wallet
	err = tx.QueryRow(ctx, `
		INSERT INTO wallets (driver_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (driver_id) DO UPDATE SET balance = wallets.balance + $2
		RETURNING driver_id, balance`, string(driverID), int64(delta)).
		Scan(&w.DriverID, &w.Balance)
	if err != nil {
		return nil, err
	}

	var bookingID any
	if entry.BookingID != nil {
		bookingID = string(*entry.BookingID)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO wallet_entries (driver_id, booking_id, entry_type, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		string(driverID), bookingID, string(entry.Type), int64(entry.Amount), entry.Note)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PGStore) Entries(ctx context.Context, driverID types.ID) ([]*Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, driver_id, booking_id, entry_type, amount, note, created_at
		FROM wallet_entries
		WHERE driver_id = $1
		ORDER BY created_at DESC`, string(driverID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var bookingID sql.NullString
		if err := rows.Scan(&e.ID, &e.DriverID, &bookingID, &e.Type, &e.Amount, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			b := types.ID(bookingID.String)
			e.BookingID = &b
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
