package network

import (
	"context"
	"log/slog"
	"time"
)

// HealthChecker проверяет доступность backend
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober feeds a Monitor with backend reachability.
// A CLI or daemon host has no browser online/offline events, so reachability of
// the backend health endpoint is used as the connectivity signal.
type Prober struct {
	checker  HealthChecker
	monitor  *Monitor
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewProber creates a new prober
func NewProber(checker HealthChecker, monitor *Monitor, interval, timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		checker:  checker,
		monitor:  monitor,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}
}

// Probe performs one health check and updates the monitor.
func (p *Prober) Probe(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.checker.Health(checkCtx)

	// Отмена со стороны вызывающего не означает потерю связи
	if ctx.Err() != nil {
		return p.monitor.IsOnline()
	}

	if err != nil {
		p.logger.Debug("Backend unreachable", "error", err)
	}

	online := err == nil
	p.monitor.SetOnline(online)
	return online
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
