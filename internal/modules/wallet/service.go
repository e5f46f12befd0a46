// README: Wallet service: commission debits and top-up credits.
package wallet

import (
	"context"
	"log/slog"

	"vahan/internal/types"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Balance(ctx context.Context, driverID types.ID) (types.Money, error) {
	w, err := s.store.Get(ctx, driverID)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// HasBalance reports whether the driver's balance covers amount. A
// missing wallet counts as zero balance, not an error.
func (s *Service) HasBalance(ctx context.Context, driverID types.ID, amount types.Money) (bool, error) {
	w, err := s.store.Get(ctx, driverID)
	if err == ErrNotFound {
		return amount <= 0, nil
	}
	if err != nil {
		return false, err
	}
	return w.Balance >= amount, nil
}

// Debit deducts amount from the driver's wallet. Balances may go
// negative; a negative result is logged and settled out of band.
func (s *Service) Debit(ctx context.Context, driverID types.ID, amount types.Money, bookingID types.ID, note string) error {
	bid := bookingID
	w, err := s.store.Adjust(ctx, driverID, -amount, Entry{
		DriverID:  driverID,
		BookingID: &bid,
		Type:      EntryDebit,
		Amount:    amount,
		Note:      note,
	})
	if err != nil {
		return err
	}
	if w.Balance < 0 {
		slog.Warn("wallet balance negative after debit",
			"driver_id", driverID, "balance", w.Balance.String())
	}
	return nil
}

func (s *Service) Credit(ctx context.Context, driverID types.ID, amount types.Money, note string) error {
	_, err := s.store.Adjust(ctx, driverID, amount, Entry{
		DriverID: driverID,
		Type:     EntryCredit,
		Amount:   amount,
		Note:     note,
	})
	return err
}

func (s *Service) Entries(ctx context.Context, driverID types.ID) ([]*Entry, error) {
	return s.store.Entries(ctx, driverID)
}
