// Package statusflow defines the fulfillment sequence of each order type and
// answers transition queries over it. It holds no state beyond static config;
// the single place that writes a status is service.OrderService.Advance.
package statusflow

import (
	"errors"
	"fmt"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/sirupsen/logrus"
)

// Errors returned by the flow engine.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownOrderType  = errors.New("unknown order_type")
)

// TransitionError describes a rejected transition.
type TransitionError struct {
	OrderType string
	From      string
	To        string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move %s order from %s to %s", ErrInvalidTransition, e.OrderType, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

var flows = map[string][]string{
	enum.OrderTypeDelivery: {
		enum.OrderStatusPending,
		enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusOutForDelivery,
		enum.OrderStatusDelivered,
	},
	enum.OrderTypePickup: {
		enum.OrderStatusPending,
		enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing,
		enum.OrderStatusReadyForPickup,
		enum.OrderStatusPickedUp,
	},
	enum.OrderTypeDineIn: {
		enum.OrderStatusPending,
		enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing,
		enum.OrderStatusReadyToServe,
		enum.OrderStatusServed,
	},
}

// readyEquivalent holds the "food is done" status of every flow.
var readyEquivalent = map[string]bool{
	enum.OrderStatusReady:          true,
	enum.OrderStatusReadyForPickup: true,
	enum.OrderStatusReadyToServe:   true,
}

// Engine answers flow queries. The zero value is usable and does not log.
type Engine struct {
	log *logrus.Entry
}

// New creates an Engine that reports unknown order types on log.
func New(log *logrus.Entry) *Engine {
	return &Engine{log: log}
}

// FlowFor returns the flow of orderType. Unknown types get the delivery flow
// and known=false.
func FlowFor(orderType string) (flow []string, known bool) {
	if f, ok := flows[orderType]; ok {
		return f, true
	}
	return flows[enum.OrderTypeDelivery], false
}

// IsValidOrderType reports whether orderType has a flow of its own.
func IsValidOrderType(orderType string) bool {
	_, ok := flows[orderType]
	return ok
}

// StatusFlow returns a copy of the ordered statuses for orderType, falling
// back to the delivery flow for unknown types.
func (e *Engine) StatusFlow(orderType string) []string {
	flow, known := FlowFor(orderType)
	if !known && e != nil && e.log != nil {
		e.log.WithFields(logrus.Fields{
			"order_type": orderType,
			"error":      ErrUnknownOrderType,
		}).Warn("falling back to delivery flow")
	}
	out := make([]string, len(flow))
	copy(out, flow)
	return out
}

// NextStatus returns the status following current in orderType's flow.
// ok is false when current is last in the flow or not part of it.
func (e *Engine) NextStatus(orderType, current string) (next string, ok bool) {
	flow := e.StatusFlow(orderType)
	idx := indexOf(flow, current)
	if idx < 0 || idx == len(flow)-1 {
		return "", false
	}
	return flow[idx+1], true
}

// IsTerminal reports whether no further transition is possible from status.
// Statuses outside the flow are treated as terminal.
func (e *Engine) IsTerminal(orderType, status string) bool {
	if status == enum.OrderStatusCancelled {
		return true
	}
	_, ok := e.NextStatus(orderType, status)
	return !ok
}

// ValidateTransition checks that to is the next step after from, or a
// cancellation of a non-terminal order.
func (e *Engine) ValidateTransition(orderType, from, to string) error {
	if to == enum.OrderStatusCancelled {
		if e.IsTerminal(orderType, from) {
			return &TransitionError{OrderType: orderType, From: from, To: to}
		}
		return nil
	}
	next, ok := e.NextStatus(orderType, from)
	if !ok || next != to {
		return &TransitionError{OrderType: orderType, From: from, To: to}
	}
	return nil
}

// IsReadyEquivalent reports whether status means the kitchen finished the order.
func IsReadyEquivalent(status string) bool {
	return readyEquivalent[status]
}

// IsReadyOrLater reports whether status is the ready-equivalent step of
// orderType's flow or any step after it.
func IsReadyOrLater(orderType, status string) bool {
	flow, _ := FlowFor(orderType)
	idx := indexOf(flow, status)
	if idx < 0 {
		return false
	}
	for i := 0; i <= idx; i++ {
		if readyEquivalent[flow[i]] {
			return true
		}
	}
	return false
}

func indexOf(flow []string, status string) int {
	for i, s := range flow {
		if s == status {
			return i
		}
	}
	return -1
}
