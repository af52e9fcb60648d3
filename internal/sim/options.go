package sim

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ammScope/internal/amm"
)

// Verifier checks local pool state against an external source of truth.
// A Driver calls it once, on the seeded pool before step 1; a mismatch
// aborts the run.
type Verifier interface {
	Verify(ctx context.Context, snap amm.Snapshot) error
}

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	verifier   Verifier
}

// Option configures a Driver or an ArbitrageScenario.
type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegisterer registers run counters on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithVerifier attaches a verification oracle to a Driver.
func WithVerifier(v Verifier) Option {
	return func(o *options) { o.verifier = v }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
