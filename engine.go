package contactAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/contactAuth/internal/audit"
	"github.com/MrEthical07/contactAuth/internal/flows"
	"github.com/MrEthical07/contactAuth/session"
)

// Engine runs the authentication flows. Build one with New().Build(); all
// methods are safe for concurrent use.
type Engine struct {
	config   Config
	flows    flows.Service
	cache    *session.Cache
	store    PrincipalStore
	notifier Notifier
	avatars  AvatarStorage
	logger   *slog.Logger
	audit    *audit.Dispatcher
	metrics  *Metrics

	// background verification sends; no new send starts once closed
	sendMu  sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

// Close waits for in-flight verification emails and drains the audit
// dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.sendMu.Lock()
	e.closed = true
	e.sendMu.Unlock()

	e.pending.Wait()
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByType breaks AuditDropped down by event type.
func (e *Engine) AuditDroppedByType() map[string]uint64 {
	if e == nil {
		return map[string]uint64{}
	}
	return e.audit.DroppedByType()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.Enabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Health pings the session cache and, when it supports it, the principal
// store.
func (e *Engine) Health(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	var errs []error
	if err := e.cache.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrCacheUnavailable, err))
	}
	if p, ok := e.store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
		}
	}
	return errors.Join(errs...)
}

// storeErr maps a store failure onto the Engine's sentinels. A principal
// that vanished mid-flow reads as ErrPrincipalGone.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPrincipalNotFound):
		return fmt.Errorf("%w: %v", ErrPrincipalGone, err)
	case errors.Is(err, ErrPrincipalExists):
		return fmt.Errorf("%w: %v", ErrAccountExists, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func cacheErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
}

func (e *Engine) logInfra(ctx context.Context, msg string, err error, attrs ...any) {
	e.metricInc(MetricInfraFailure)
	e.logger.ErrorContext(ctx, msg, append(attrs, "error", err)...)
}
