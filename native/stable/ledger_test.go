package stable

import (
	"errors"
	"testing"
)

func TestBookDepositAndWithdraw(t *testing.T) {
	book := NewBook()
	alice := makeAddress(0x01)
	asset := makeAddress(0xA0)

	book.Deposit(alice, asset, wei(10))
	book.Deposit(alice, asset, wei(5))
	if got := book.CollateralOf(alice, asset); got.Cmp(wei(15)) != 0 {
		t.Fatalf("unexpected balance: %s", got)
	}

	if err := book.Withdraw(alice, asset, wei(15)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if err := book.Withdraw(alice, asset, wei(1)); !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}
	if got := book.CollateralOf(alice, asset); got.Sign() != 0 {
		t.Fatalf("balance not drained: %s", got)
	}
}

func TestBookDebtUnderflow(t *testing.T) {
	book := NewBook()
	alice := makeAddress(0x01)

	book.IncreaseDebt(alice, wei(10))
	if err := book.DecreaseDebt(alice, wei(11)); !errors.Is(err, ErrInsufficientDebt) {
		t.Fatalf("expected ErrInsufficientDebt, got %v", err)
	}
	if err := book.DecreaseDebt(alice, wei(10)); err != nil {
		t.Fatalf("decrease debt: %v", err)
	}
	if got := book.DebtOf(alice); got.Sign() != 0 {
		t.Fatalf("debt not cleared: %s", got)
	}
}

func TestBookAccessorsReturnCopies(t *testing.T) {
	book := NewBook()
	alice := makeAddress(0x01)
	asset := makeAddress(0xA0)

	book.Deposit(alice, asset, wei(10))
	book.IncreaseDebt(alice, wei(3))

	book.CollateralOf(alice, asset).SetInt64(0)
	book.DebtOf(alice).SetInt64(0)

	if got := book.CollateralOf(alice, asset); got.Cmp(wei(10)) != 0 {
		t.Fatalf("collateral aliased: %s", got)
	}
	if got := book.DebtOf(alice); got.Cmp(wei(3)) != 0 {
		t.Fatalf("debt aliased: %s", got)
	}
}

func TestBookSnapshotIsDeep(t *testing.T) {
	book := NewBook()
	alice := makeAddress(0x01)
	asset := makeAddress(0xA0)

	book.Deposit(alice, asset, wei(10))
	book.IncreaseDebt(alice, wei(3))
	snapshot := book.Snapshot()

	book.Deposit(alice, asset, wei(90))
	book.IncreaseDebt(alice, wei(7))

	if got := snapshot.CollateralOf(alice, asset); got.Cmp(wei(10)) != 0 {
		t.Fatalf("snapshot collateral mutated: %s", got)
	}
	if got := snapshot.DebtOf(alice); got.Cmp(wei(3)) != 0 {
		t.Fatalf("snapshot debt mutated: %s", got)
	}
}

func TestBookTotals(t *testing.T) {
	book := NewBook()
	alice := makeAddress(0x01)
	bob := makeAddress(0x02)
	asset := makeAddress(0xA0)

	book.Deposit(alice, asset, wei(10))
	book.Deposit(bob, asset, wei(7))
	book.IncreaseDebt(alice, wei(3))
	book.IncreaseDebt(bob, wei(4))

	if got := book.AssetTotal(asset); got.Cmp(wei(17)) != 0 {
		t.Fatalf("unexpected asset total: %s", got)
	}
	if got := book.TotalDebt(); got.Cmp(wei(7)) != 0 {
		t.Fatalf("unexpected total debt: %s", got)
	}
}
