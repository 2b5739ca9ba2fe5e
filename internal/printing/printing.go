// Package printing renders order receipts and delivers them to a print agent.
package printing

import (
	"context"
	"errors"
)

// ErrPrinterUnavailable means the print target could not be reached. Callers
// fall back to client-side printing of the rendered receipt.
var ErrPrinterUnavailable = errors.New("printer unavailable")

// Target is a print resource acquired before the order is mutated.
// Release must be called exactly once, whether or not Print was.
type Target interface {
	Print(ctx context.Context, receipt []byte) error
	Release()
}

// Printer opens print targets by printer name.
type Printer interface {
	Open(ctx context.Context, printerName string) (Target, error)
}
