package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const receiptWidth = 40

// Receipt is the printable view of an order.
type Receipt struct {
	EstablishmentName string
	OrderNumber       int32
	OrderType         string
	CreatedAt         time.Time
	ScheduledFor      *time.Time
	CustomerName      string
	CustomerPhone     string
	DeliveryAddress   string
	TableNumber       string
	Items             []ReceiptItem
	Subtotal          decimal.Decimal
	DeliveryFee       decimal.Decimal
	Total             decimal.Decimal
	PaymentMethod     string
	ChangeFor         *decimal.Decimal
	Notes             string
}

type ReceiptItem struct {
	Name        string
	Quantity    int32
	LineTotal   decimal.Decimal
	Observation string
	Addons      []ReceiptAddon
}

type ReceiptAddon struct {
	Name     string
	Quantity int32
}

var orderTypeLabels = map[string]string{
	"delivery": "DELIVERY",
	"pickup":   "PICKUP",
	"dine_in":  "DINE IN",
}

// Render lays the receipt out as fixed-width plain text.
func Render(r Receipt) []byte {
	var b strings.Builder
	rule := strings.Repeat("-", receiptWidth)

	center(&b, r.EstablishmentName)
	center(&b, fmt.Sprintf("ORDER #%d", r.OrderNumber))
	if label, ok := orderTypeLabels[r.OrderType]; ok {
		center(&b, label)
	}
	b.WriteString(rule + "\n")

	line(&b, "Placed", r.CreatedAt.Format("02/01/2006 15:04"))
	if r.ScheduledFor != nil {
		line(&b, "Scheduled", r.ScheduledFor.Format("02/01/2006 15:04"))
	}
	if r.TableNumber != "" {
		line(&b, "Table", r.TableNumber)
	}
	if r.CustomerName != "" {
		line(&b, "Customer", r.CustomerName)
	}
	if r.CustomerPhone != "" {
		line(&b, "Phone", r.CustomerPhone)
	}
	if r.DeliveryAddress != "" {
		b.WriteString("Address:\n")
		wrap(&b, r.DeliveryAddress, "  ")
	}
	b.WriteString(rule + "\n")

	for _, it := range r.Items {
		line(&b, fmt.Sprintf("%dx %s", it.Quantity, it.Name), it.LineTotal.StringFixed(2))
		for _, a := range it.Addons {
			fmt.Fprintf(&b, "   + %dx %s\n", a.Quantity, a.Name)
		}
		if it.Observation != "" {
			wrap(&b, "obs: "+it.Observation, "   ")
		}
	}
	b.WriteString(rule + "\n")

	line(&b, "Subtotal", r.Subtotal.StringFixed(2))
	if !r.DeliveryFee.IsZero() {
		line(&b, "Delivery fee", r.DeliveryFee.StringFixed(2))
	}
	line(&b, "TOTAL", r.Total.StringFixed(2))
	if r.PaymentMethod != "" {
		line(&b, "Payment", r.PaymentMethod)
	}
	if r.ChangeFor != nil {
		line(&b, "Change for", r.ChangeFor.StringFixed(2))
		line(&b, "Change", r.ChangeFor.Sub(r.Total).StringFixed(2))
	}
	if r.Notes != "" {
		b.WriteString(rule + "\n")
		wrap(&b, "Notes: "+r.Notes, "")
	}

	return []byte(b.String())
}

func center(b *strings.Builder, s string) {
	if pad := (receiptWidth - len(s)) / 2; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(s + "\n")
}

func line(b *strings.Builder, left, right string) {
	gap := receiptWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left + strings.Repeat(" ", gap) + right + "\n")
}

func wrap(b *strings.Builder, s, indent string) {
	width := receiptWidth - len(indent)
	cur := indent
	for _, w := range strings.Fields(s) {
		if len(cur) > len(indent) && len(cur)+1+len(w) > len(indent)+width {
			b.WriteString(cur + "\n")
			cur = indent
		}
		if len(cur) > len(indent) {
			cur += " "
		}
		cur += w
	}
	if len(cur) > len(indent) {
		b.WriteString(cur + "\n")
	}
}
