// Package closeout validates that declared payments cover the amount owed on
// a tab or a single order. Applying the close is done by the service layer
// inside a transaction; this package only does the arithmetic.
package closeout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// toleranceCents is the largest accepted difference between payments and
// target, in cents.
const toleranceCents = 1

// Tolerance returns the largest accepted difference between payments and
// target.
func Tolerance() decimal.Decimal {
	return decimal.New(toleranceCents, -2)
}

// Errors returned by reconciliation.
var (
	ErrReconciliationMismatch = errors.New("payments do not match total")
	ErrPaymentMethodDisabled  = errors.New("payment method not enabled")
	ErrNegativeAmount         = errors.New("payment amount must not be negative")
)

// Sign tells the caller which way a mismatch goes.
type Sign string

const (
	Shortfall   Sign = "shortfall"
	Overpayment Sign = "overpayment"
)

// MismatchError carries the unreconciled remainder. Remaining is
// target − Σ payments: positive for a shortfall, negative for an overpayment.
type MismatchError struct {
	Remaining decimal.Decimal
	Sign      Sign
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s of %s", ErrReconciliationMismatch, e.Sign, e.Remaining.Abs().StringFixed(2))
}

func (e *MismatchError) Unwrap() error {
	return ErrReconciliationMismatch
}

// Payment is one declared tender.
type Payment struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Result is an accepted reconciliation.
type Result struct {
	Target    decimal.Decimal
	Paid      decimal.Decimal
	Remaining decimal.Decimal
	Payments  []Payment
}

// ReconcileSingle accepts a single-method close of the full target.
func ReconcileSingle(method string, target decimal.Decimal, enabled []string) (Result, error) {
	if err := CheckMethod(method, enabled); err != nil {
		return Result{}, err
	}
	return Result{
		Target:    target,
		Paid:      target,
		Remaining: decimal.Zero,
		Payments:  []Payment{{Method: method, Amount: target}},
	}, nil
}

// Reconcile accepts payments iff |target − Σ amounts| <= Tolerance().
func Reconcile(target decimal.Decimal, payments []Payment, enabled []string) (Result, error) {
	paid := decimal.Zero
	for i, p := range payments {
		if !isEnabled(p.Method, enabled) {
			return Result{}, fmt.Errorf("payments[%d]: %w: %s", i, ErrPaymentMethodDisabled, p.Method)
		}
		if p.Amount.IsNegative() {
			return Result{}, fmt.Errorf("payments[%d]: %w", i, ErrNegativeAmount)
		}
		paid = paid.Add(p.Amount)
	}

	remaining := target.Sub(paid)
	if remaining.Abs().GreaterThan(Tolerance()) {
		sign := Shortfall
		if remaining.IsNegative() {
			sign = Overpayment
		}
		return Result{}, &MismatchError{Remaining: remaining, Sign: sign}
	}

	return Result{
		Target:    target,
		Paid:      paid,
		Remaining: remaining,
		Payments:  payments,
	}, nil
}

// CheckMethod returns ErrPaymentMethodDisabled unless method is enabled.
func CheckMethod(method string, enabled []string) error {
	if !isEnabled(method, enabled) {
		return fmt.Errorf("%w: %s", ErrPaymentMethodDisabled, method)
	}
	return nil
}

func isEnabled(method string, enabled []string) bool {
	for _, m := range enabled {
		if m == method {
			return true
		}
	}
	return false
}
