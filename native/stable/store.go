package stable

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"stablecore/storage"
)

var bookKey = []byte("stable/book")

// positionRecord is the wire form of one account's holdings of one asset.
type positionRecord struct {
	Account Account
	Asset   AssetID
	Amount  *big.Int
}

type debtRecord struct {
	Account Account
	Debt    *big.Int
}

type bookRecord struct {
	Positions []positionRecord
	Debts     []debtRecord
}

// SaveBook writes the ledgers to the database under a single key. Records
// are sorted by account and asset bytes so the encoding is deterministic.
func SaveBook(db storage.Database, b *Book) error {
	if db == nil || b == nil {
		return fmt.Errorf("stable: database and book required")
	}
	record := bookRecord{}
	for account, assets := range b.collateral {
		for asset, balance := range assets {
			if balance.Sign() == 0 {
				continue
			}
			record.Positions = append(record.Positions, positionRecord{
				Account: account,
				Asset:   asset,
				Amount:  new(big.Int).Set(balance),
			})
		}
	}
	for account, debt := range b.debt {
		if debt.Sign() == 0 {
			continue
		}
		record.Debts = append(record.Debts, debtRecord{Account: account, Debt: new(big.Int).Set(debt)})
	}
	sort.Slice(record.Positions, func(i, j int) bool {
		a, b := record.Positions[i], record.Positions[j]
		if cmp := bytes.Compare(a.Account[:], b.Account[:]); cmp != 0 {
			return cmp < 0
		}
		return bytes.Compare(a.Asset[:], b.Asset[:]) < 0
	})
	sort.Slice(record.Debts, func(i, j int) bool {
		return bytes.Compare(record.Debts[i].Account[:], record.Debts[j].Account[:]) < 0
	})
	encoded, err := rlp.EncodeToBytes(&record)
	if err != nil {
		return fmt.Errorf("stable: encode book: %w", err)
	}
	return db.Put(bookKey, encoded)
}

// LoadBook reads previously persisted ledgers. A database without a stored
// book yields an empty one.
func LoadBook(db storage.Database) (*Book, error) {
	if db == nil {
		return nil, fmt.Errorf("stable: database required")
	}
	encoded, err := db.Get(bookKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return NewBook(), nil
		}
		return nil, fmt.Errorf("stable: read book: %w", err)
	}
	record := bookRecord{}
	if err := rlp.DecodeBytes(encoded, &record); err != nil {
		return nil, fmt.Errorf("stable: decode book: %w", err)
	}
	book := NewBook()
	for _, pos := range record.Positions {
		book.Deposit(pos.Account, pos.Asset, pos.Amount)
	}
	for _, debt := range record.Debts {
		book.IncreaseDebt(debt.Account, debt.Debt)
	}
	return book, nil
}
