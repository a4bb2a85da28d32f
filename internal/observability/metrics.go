// Package observability exports Prometheus counters for framed transports.
package observability

import (
	stderrors "errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Directions used for the direction label.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Metrics records frame traffic for one transport role. A nil *Metrics
// records nothing.
type Metrics struct {
	frames   *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	rejected *prometheus.CounterVec
	role     string
}

// New registers the transport collectors on reg and returns a recorder for
// role. Several transports may share one registry; collectors that are
// already registered are reused.
func New(reg prometheus.Registerer, role string) (*Metrics, error) {
	frames, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qrexec",
			Name:      "frames_total",
			Help:      "Frames moved over qrexec transports.",
		},
		[]string{"role", "direction"},
	))
	if err != nil {
		return nil, err
	}

	bytes, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qrexec",
			Name:      "frame_bytes_total",
			Help:      "Bytes moved over qrexec transports, headers included.",
		},
		[]string{"role", "direction"},
	))
	if err != nil {
		return nil, err
	}

	rejected, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qrexec",
			Name:      "capacity_rejections_total",
			Help:      "Outgoing frames refused because they exceed the write buffer.",
		},
		[]string{"role"},
	))
	if err != nil {
		return nil, err
	}

	return &Metrics{frames: frames, bytes: bytes, rejected: rejected, role: role}, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	if are, ok := stderrors.AsType[prometheus.AlreadyRegisteredError](err); ok {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}

	return nil, fmt.Errorf("register metrics: %w", err)
}

// Sent records one outgoing frame of n bytes.
func (m *Metrics) Sent(n int) {
	m.observe(DirectionSent, n)
}

// Received records one incoming frame of n bytes.
func (m *Metrics) Received(n int) {
	m.observe(DirectionReceived, n)
}

// Rejected records one frame refused by the capacity check.
func (m *Metrics) Rejected() {
	if m == nil {
		return
	}

	m.rejected.WithLabelValues(m.role).Inc()
}

func (m *Metrics) observe(direction string, n int) {
	if m == nil {
		return
	}

	m.frames.WithLabelValues(m.role, direction).Inc()
	m.bytes.WithLabelValues(m.role, direction).Add(float64(n))
}
