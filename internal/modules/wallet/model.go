// README: Driver wallet: balance plus an append-only ledger.
package wallet

import (
	"context"
	"errors"
	"time"

	"vahan/internal/types"
)

var ErrNotFound = errors.New("wallet not found")

type EntryType string

const (
	EntryCredit EntryType = "CREDIT"
	EntryDebit  EntryType = "DEBIT"
)

type Wallet struct {
	DriverID types.ID
	Balance  types.Money
}

type Entry struct {
	ID        types.ID
	DriverID  types.ID
	BookingID *types.ID
	Type      EntryType
	Amount    types.Money
	Note      string
	CreatedAt time.Time
}

type Store interface {
	Get(ctx context.Context, driverID types.ID) (*Wallet, error)
	// Adjust applies a signed delta to the balance and appends a ledger
	// entry in one transaction. The balance is allowed to go negative.
	Adjust(ctx context.Context, driverID types.ID, delta types.Money, entry Entry) (*Wallet, error)
	Entries(ctx context.Context, driverID types.ID) ([]*Entry, error)
}
