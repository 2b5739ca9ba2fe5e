package printing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const defaultJobTimeout = 10 * time.Second

type printJob struct {
	Type    string `json:"type"`
	JobID   string `json:"job_id"`
	Printer string `json:"printer"`
	Data    string `json:"data"`
}

type printAck struct {
	JobID string `json:"job_id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ConnManager owns a single websocket connection to a local print agent.
// It connects on first use, reuses the connection for later jobs, and
// reconnects once when a reused connection turns out to be dead.
type ConnManager struct {
	url     string
	dialer  *websocket.Dialer
	timeout time.Duration
	log     *logrus.Entry

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewConnManager does not dial; the first Open does.
func NewConnManager(url string, log *logrus.Entry) *ConnManager {
	return &ConnManager{
		url:     url,
		dialer:  websocket.DefaultDialer,
		timeout: defaultJobTimeout,
		log:     log,
	}
}

// Open makes sure the agent is reachable and returns a target bound to
// printerName.
func (m *ConnManager) Open(ctx context.Context, printerName string) (Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.connLocked(ctx); err != nil {
		return nil, err
	}
	return &agentTarget{m: m, printer: printerName}, nil
}

// Close drops the agent connection, if any.
func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return nil
	}
	_ = m.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := m.conn.Close()
	m.conn = nil
	return err
}

func (m *ConnManager) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if m.conn != nil {
		return m.conn, nil
	}
	conn, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrPrinterUnavailable, m.url, err)
	}
	m.log.WithField("url", m.url).Info("connected to print agent")
	m.conn = conn
	return conn, nil
}

func (m *ConnManager) dropLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

func (m *ConnManager) print(ctx context.Context, printer string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reused := m.conn != nil
	broken, err := m.sendLocked(ctx, printer, data)
	if err == nil || !broken {
		return err
	}

	m.dropLocked()
	if !reused {
		return err
	}

	m.log.WithError(err).Warn("print agent connection lost, reconnecting")
	broken, err = m.sendLocked(ctx, printer, data)
	if broken {
		m.dropLocked()
	}
	return err
}

// sendLocked reports broken=true when the connection can no longer be used.
func (m *ConnManager) sendLocked(ctx context.Context, printer string, data []byte) (broken bool, err error) {
	conn, err := m.connLocked(ctx)
	if err != nil {
		return false, err
	}

	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	job := printJob{
		Type:    "print",
		JobID:   uuid.NewString(),
		Printer: printer,
		Data:    string(data),
	}

	conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(job); err != nil {
		return true, fmt.Errorf("%w: send job: %v", ErrPrinterUnavailable, err)
	}

	conn.SetReadDeadline(deadline)
	var ack printAck
	if err := conn.ReadJSON(&ack); err != nil {
		return true, fmt.Errorf("%w: read ack: %v", ErrPrinterUnavailable, err)
	}
	if ack.JobID != job.JobID {
		return true, fmt.Errorf("%w: ack for unexpected job %q", ErrPrinterUnavailable, ack.JobID)
	}
	if !ack.OK {
		return false, fmt.Errorf("%w: %s", ErrPrinterUnavailable, ack.Error)
	}
	return false, nil
}

type agentTarget struct {
	m        *ConnManager
	printer  string
	released atomic.Bool
}

func (t *agentTarget) Print(ctx context.Context, receipt []byte) error {
	if t.released.Load() {
		return fmt.Errorf("%w: target already released", ErrPrinterUnavailable)
	}
	return t.m.print(ctx, t.printer, receipt)
}

func (t *agentTarget) Release() {
	t.released.Store(true)
}
