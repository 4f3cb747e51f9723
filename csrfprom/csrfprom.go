// Package csrfprom records csrf.Protector activity as Prometheus metrics.
package csrfprom

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JeanGrijp/go-csrf-token/csrf"
)

// Recorder implements csrf.Recorder.
type Recorder struct {
	issued   prometheus.Counter
	verified *prometheus.CounterVec
}

var _ csrf.Recorder = (*Recorder)(nil)

// New creates the collectors and registers them on reg
// (prometheus.DefaultRegisterer when nil). Registering twice on the same
// registry reuses the collectors already there.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csrf_tokens_issued_total",
			Help: "Number of CSRF tokens minted",
		}),
		verified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csrf_verifications_total",
			Help: "CSRF verifications by request method and outcome",
		}, []string{"method", "outcome"}),
	}
	var err error
	if r.issued, err = register(reg, r.issued); err != nil {
		return nil, err
	}
	if r.verified, err = register(reg, r.verified); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *Recorder) TokenIssued() {
	r.issued.Inc()
}

func (r *Recorder) Verified(method string, o csrf.Outcome) {
	r.verified.WithLabelValues(method, o.String()).Inc()
}
