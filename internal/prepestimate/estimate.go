// Package prepestimate computes the expected preparation time shown to
// customers, either from manual configuration or from recent order timings.
package prepestimate

import (
	"math"
	"time"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/statusflow"
	"github.com/google/uuid"
)

const (
	// DefaultMinutes is used when no window yields a usable sample.
	DefaultMinutes = 30
	// LookbackDays is the widest window scanned.
	LookbackDays = 30

	minSampleMinutes = 1.0
	maxSampleMinutes = 180.0
)

// Source names the window (or configuration) that produced an estimate.
type Source string

const (
	SourceManual    Source = "manual"
	SourceToday     Source = "today"
	SourceYesterday Source = "yesterday"
	SourceLast30    Source = "last_30_days"
	SourceDefault   Source = "default"
)

// Config is the establishment's preparation-time setting.
type Config struct {
	Mode               string
	PreparationMinutes int
	DeliveryMinutes    int
}

// Timing is one historical order with the first time it reached confirmed and
// a ready-equivalent status. Zero times mean the status was never reached.
type Timing struct {
	OrderID     uuid.UUID
	OrderType   string
	Status      string
	CreatedAt   time.Time
	ConfirmedAt time.Time
	ReadyAt     time.Time
}

// Estimate is the figure shown to customers, in minutes.
type Estimate struct {
	Preparation int    `json:"preparation"`
	Delivery    int    `json:"delivery"`
	Total       int    `json:"total"`
	Source      Source `json:"source"`
	SampleSize  int    `json:"sample_size"`
}

// Compute returns the estimate for cfg. Timings are only read in auto_daily
// mode; any mode other than auto_daily is treated as manual.
func Compute(cfg Config, timings []Timing, now time.Time, loc *time.Location) Estimate {
	if cfg.Mode != enum.PrepTimeModeAutoDaily {
		return Estimate{
			Preparation: cfg.PreparationMinutes,
			Delivery:    cfg.DeliveryMinutes,
			Total:       cfg.PreparationMinutes + cfg.DeliveryMinutes,
			Source:      SourceManual,
		}
	}

	prep, source, n := AutoDaily(timings, now, loc)
	return Estimate{
		Preparation: prep,
		Delivery:    0,
		Total:       prep,
		Source:      source,
		SampleSize:  n,
	}
}

// AutoDaily walks the window chain today → yesterday → last 30 days and
// averages the first window with at least one usable sample.
func AutoDaily(timings []Timing, now time.Time, loc *time.Location) (minutes int, source Source, samples int) {
	for _, w := range Windows(now, loc) {
		s := Samples(timings, w.From, w.To)
		if len(s) == 0 {
			continue
		}
		return mean(s), w.Source, len(s)
	}
	return DefaultMinutes, SourceDefault, 0
}

// Window is a half-open [From, To) range over order creation time.
type Window struct {
	Source Source
	From   time.Time
	To     time.Time
}

// Windows returns the fallback chain evaluated at now in loc.
func Windows(now time.Time, loc *time.Location) []Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := local.Add(time.Nanosecond)

	return []Window{
		{Source: SourceToday, From: today, To: end},
		{Source: SourceYesterday, From: today.AddDate(0, 0, -1), To: today},
		{Source: SourceLast30, From: today.AddDate(0, 0, -LookbackDays), To: end},
	}
}

// Since returns the earliest creation time any window can look at.
func Since(now time.Time, loc *time.Location) time.Time {
	w := Windows(now, loc)
	return w[len(w)-1].From
}

// Samples returns preparation durations in minutes for orders created in
// [from, to) that finished cooking, discarding values outside (1, 180).
func Samples(timings []Timing, from, to time.Time) []float64 {
	var out []float64
	for _, t := range timings {
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		if !statusflow.IsReadyOrLater(t.OrderType, t.Status) {
			continue
		}
		if t.ConfirmedAt.IsZero() || t.ReadyAt.IsZero() {
			continue
		}
		minutes := t.ReadyAt.Sub(t.ConfirmedAt).Minutes()
		if minutes <= minSampleMinutes || minutes >= maxSampleMinutes {
			continue
		}
		out = append(out, minutes)
	}
	return out
}

func mean(values []float64) int {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return int(math.Round(sum / float64(len(values))))
}
