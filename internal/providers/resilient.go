package providers

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/lehigh-university-libraries/covermatch/internal/metrics"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// BreakerSettings controls when a failing provider is short-circuited.
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probe requests allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings returns the production breaker configuration.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// Resilient wraps an Embedder with a circuit breaker and call metrics.
// Calls are never retried; an open breaker fails fast.
type Resilient struct {
	inner Embedder
	cb    *gobreaker.CircuitBreaker[models.Embedding]
}

// NewResilient wraps inner.
func NewResilient(inner Embedder, settings BreakerSettings) *Resilient {
	name := inner.Name()
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	cb := gobreaker.NewCircuitBreaker[models.Embedding](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Embedding provider breaker changed state", "provider", name, "from", from.String(), "to", to.String())
			metrics.ProviderBreakerState.WithLabelValues(name).Set(float64(to))
		},
		IsSuccessful: func(err error) bool {
			// a cancelled request says nothing about provider health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Resilient{inner: inner, cb: cb}
}

func (r *Resilient) Name() string {
	return r.inner.Name()
}

// State reports the breaker state, e.g. for the status endpoint.
func (r *Resilient) State() string {
	return r.cb.State().String()
}

func (r *Resilient) EmbedImage(ctx context.Context, img image.Image) (models.Embedding, error) {
	name := r.inner.Name()
	start := time.Now()

	v, err := r.cb.Execute(func() (models.Embedding, error) {
		return r.inner.EmbedImage(ctx, img)
	})
	metrics.EmbeddingDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EmbeddingErrors.WithLabelValues(name).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, Unavailable(name, err)
		}
		return nil, err
	}
	return v, nil
}
