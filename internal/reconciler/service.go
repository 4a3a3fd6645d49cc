package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"print-roll-console/internal/board"
	"print-roll-console/internal/pkg/config"
)

type Service interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	// Trigger asks for a board refresh. It never blocks; triggers arriving
	// while one is queued collapse into it.
	Trigger()
}

// DefaultService keeps the local board in line with the server: on every
// push trigger and, as a safety net, on a fixed interval.
type DefaultService struct {
	board   board.Service
	cfg     *config.BoardCfg
	trigger chan struct{}
	wg      *sync.WaitGroup
}

func NewDefaultService(boardService board.Service, cfg *config.BoardCfg) Service {
	return &DefaultService{
		board:   boardService,
		cfg:     cfg,
		trigger: make(chan struct{}, 1),
		wg:      &sync.WaitGroup{},
	}
}

func (d *DefaultService) Start(ctx context.Context) {
	d.startReconciliationLoop(ctx)
	slog.Info("Started reconciler service", "interval", d.cfg.ReloadInterval)
}

func (d *DefaultService) Stop(ctx context.Context) error {
	stop := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(stop)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop:
		return nil
	}
}

func (d *DefaultService) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

func (d *DefaultService) startReconciliationLoop(ctx context.Context) {
	var tick <-chan time.Time
	if d.cfg.ReloadInterval > 0 {
		ticker := time.NewTicker(d.cfg.ReloadInterval)
		tick = ticker.C
		d.wg.Add(1)
		go func() {
			<-ctx.Done()
			ticker.Stop()
			d.wg.Done()
		}()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.trigger:
				d.reconcile(ctx, "push")
			case <-tick:
				d.reconcile(ctx, "interval")
			}
		}
	}()
}

func (d *DefaultService) reconcile(ctx context.Context, trigger string) {
	if err := d.board.RequestReload(ctx, trigger); err != nil {
		slog.Error("Failed to reconcile board", "error", err, "trigger", trigger)
	}
}
