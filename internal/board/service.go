package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"print-roll-console/internal/api"
	"print-roll-console/internal/pkg/metrics"
	"print-roll-console/internal/pkg/model"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const DefaultRollColor = "#3b82f6"

// API is the part of the production API the board persists through.
type API interface {
	GetBoard(ctx context.Context, area string) (*api.BoardSnapshot, error)
	CreateRoll(ctx context.Context, req api.RequestCreateRoll) (*model.Roll, error)
	RenameRoll(ctx context.Context, rollID int64, name string) (*model.Roll, error)
	MoveOrder(ctx context.Context, orderID, targetRollID int64) error
	UnassignOrder(ctx context.Context, orderID int64) error
	ReorderRoll(ctx context.Context, rollID int64, orderIDs []int64) error
	DismantleRoll(ctx context.Context, rollID int64) error
	RollDetails(ctx context.Context, rollID int64) (*api.RollDetails, error)
}

type Service interface {
	Snapshot() BoardState
	Pending(filter PendingFilter) []model.PendingOrder
	Move(ctx context.Context, cmd MoveCommand) error
	CreateRoll(ctx context.Context, name string, capacity decimal.Decimal, color string) (*model.Roll, error)
	RenameRoll(ctx context.Context, rollID int64, name string) error
	DismantleRoll(ctx context.Context, rollID int64) error
	UnassignOrders(ctx context.Context, rollID int64, orderIDs []int64) (int, error)
	RollDetails(ctx context.Context, rollID int64) (*api.RollDetails, error)
	Reload(ctx context.Context, trigger string) error
	RequestReload(ctx context.Context, trigger string) error
	BeginGesture()
	EndGesture(ctx context.Context)
}

// DefaultService mirrors the server board in memory. Every mutation is
// applied to a fresh copy of the state under the lock and only then
// persisted; a failed persist puts the previous copy back and reloads.
type DefaultService struct {
	api  API
	area string

	mu      sync.RWMutex
	state   BoardState
	version uint64

	seq      *sequencer
	flight   singleflight.Group
	gestures atomic.Int32
	deferred atomic.Bool
}

func NewDefaultService(client API, area string) Service {
	return &DefaultService{
		api:   client,
		area:  area,
		state: BoardState{Pending: []model.PendingOrder{}, Rolls: []model.Roll{}},
		seq:   newSequencer(),
	}
}

func (d *DefaultService) Snapshot() BoardState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Clone()
}

func (d *DefaultService) Pending(filter PendingFilter) []model.PendingOrder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return FilterPending(d.state.Pending, filter)
}

func (d *DefaultService) Move(ctx context.Context, cmd MoveCommand) error {
	d.BeginGesture()
	defer d.EndGesture(context.WithoutCancel(ctx))

	kind := cmd.Kind()

	d.mu.Lock()
	snapshot := d.state
	next, err := ApplyMove(d.state, cmd)
	if err != nil {
		d.mu.Unlock()
		if errors.Is(err, ErrNoop) {
			metrics.BoardMoves.WithLabelValues(string(kind), "noop").Inc()
			return nil
		}
		metrics.BoardMoves.WithLabelValues(string(kind), "rejected").Inc()
		return err
	}
	d.state = next
	d.version++
	version := d.version
	t := d.seq.enqueue(touchedRolls(cmd)...)
	d.mu.Unlock()

	if err := d.persistMove(ctx, t, cmd, next); err != nil {
		metrics.BoardMoves.WithLabelValues(string(kind), "failed").Inc()
		slog.Error("Failed to persist move, rolling back", "error", err, "orderID", cmd.OrderID,
			"source", cmd.Source.String(), "dest", cmd.Dest.String())
		d.rollback(snapshot, version)
		if rerr := d.Reload(context.WithoutCancel(ctx), "rollback"); rerr != nil {
			slog.Error("Failed to reload board after rollback", "error", rerr)
		}
		return &ErrPersistFailed{Op: string(kind), Err: err}
	}

	metrics.BoardMoves.WithLabelValues(string(kind), "ok").Inc()
	return nil
}

func (d *DefaultService) persistMove(ctx context.Context, t *turn, cmd MoveCommand, next BoardState) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	defer t.finish()

	switch cmd.Kind() {
	case MoveRollToPending:
		return d.api.UnassignOrder(ctx, cmd.OrderID)
	case MovePendingToRoll, MoveRollToRoll:
		if err := d.api.MoveOrder(ctx, cmd.OrderID, cmd.Dest.RollID); err != nil {
			return err
		}
	}

	roll, _ := next.Roll(cmd.Dest.RollID)
	return d.api.ReorderRoll(ctx, roll.ID, OrderIDs(roll.Orders))
}

// rollback restores snapshot unless another mutation or a reload replaced
// the state in the meantime; the reload that follows covers that case.
func (d *DefaultService) rollback(snapshot BoardState, version uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.version != version {
		return
	}
	d.state = snapshot
	d.version++
}

func (d *DefaultService) CreateRoll(ctx context.Context, name string, capacity decimal.Decimal, color string) (*model.Roll, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidRollName
	}
	if !capacity.IsPositive() {
		return nil, ErrInvalidCapacity
	}
	if color == "" {
		color = DefaultRollColor
	}

	created, err := d.api.CreateRoll(ctx, api.RequestCreateRoll{
		AreaID:   d.area,
		Name:     name,
		Capacity: capacity,
		Color:    color,
	})
	if err != nil {
		slog.Error("Failed to create roll", "error", err, "name", name)
		return nil, &ErrPersistFailed{Op: "create roll", Err: err}
	}

	roll := Normalize(nil, []model.Roll{*created}).Rolls[0]
	if roll.Status == "" {
		roll.Status = model.RollPlanning
	}

	d.mu.Lock()
	if d.state.rollIndex(roll.ID) < 0 {
		next := d.state.Clone()
		next.Rolls = append(next.Rolls, roll)
		d.state = next
		d.version++
	}
	d.mu.Unlock()

	return &roll, nil
}

func (d *DefaultService) RenameRoll(ctx context.Context, rollID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidRollName
	}

	d.mu.Lock()
	i := d.state.rollIndex(rollID)
	if i < 0 {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrRollNotFound, rollID)
	}
	previous := d.state.Rolls[i].Name
	if previous == name {
		d.mu.Unlock()
		return nil
	}
	d.setRollName(i, name)
	t := d.seq.enqueue(rollID)
	d.mu.Unlock()

	err := t.wait(ctx)
	if err == nil {
		_, err = d.api.RenameRoll(ctx, rollID, name)
		t.finish()
	}
	if err != nil {
		slog.Error("Failed to rename roll, reverting", "error", err, "rollID", rollID)
		d.mu.Lock()
		if i := d.state.rollIndex(rollID); i >= 0 && d.state.Rolls[i].Name == name {
			d.setRollName(i, previous)
		}
		d.mu.Unlock()
		return &ErrPersistFailed{Op: "rename roll", Err: err}
	}
	return nil
}

// setRollName must be called with d.mu held.
func (d *DefaultService) setRollName(i int, name string) {
	next := d.state.Clone()
	next.Rolls[i].Name = name
	d.state = next
	d.version++
}

// DismantleRoll sends every order of an unlocked roll back to the pending
// pool and deletes the roll. Confirmation is the caller's job. The board is
// refetched afterwards instead of being computed locally.
func (d *DefaultService) DismantleRoll(ctx context.Context, rollID int64) error {
	d.mu.Lock()
	roll, ok := d.state.Roll(rollID)
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrRollNotFound, rollID)
	}
	if roll.Locked() {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrRollLocked, rollID)
	}
	t := d.seq.enqueue(rollID)
	d.mu.Unlock()

	if err := t.wait(ctx); err != nil {
		return err
	}
	err := d.api.DismantleRoll(ctx, rollID)
	t.finish()
	if err != nil {
		slog.Error("Failed to dismantle roll", "error", err, "rollID", rollID)
		return &ErrPersistFailed{Op: "dismantle roll", Err: err}
	}

	return d.Reload(ctx, "dismantle")
}

// UnassignOrders returns the selected orders of a roll to the pending pool
// one at a time, so the server sees the roll shrink step by step, and
// reloads the board at the end whatever happened. Duplicates and ids that
// are not in the roll are skipped; the count of orders actually unassigned
// is returned.
func (d *DefaultService) UnassignOrders(ctx context.Context, rollID int64, orderIDs []int64) (int, error) {
	d.mu.Lock()
	roll, ok := d.state.Roll(rollID)
	if !ok {
		d.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrRollNotFound, rollID)
	}
	if roll.Locked() {
		d.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrRollLocked, rollID)
	}
	inRoll := OrderIDs(roll.Orders)
	var selected []int64
	for _, id := range orderIDs {
		if slices.Contains(inRoll, id) && !slices.Contains(selected, id) {
			selected = append(selected, id)
		}
	}
	if len(selected) == 0 {
		d.mu.Unlock()
		return 0, fmt.Errorf("%w: none of %v in roll %d", ErrOrderNotFound, orderIDs, rollID)
	}
	t := d.seq.enqueue(rollID)
	d.mu.Unlock()

	if err := t.wait(ctx); err != nil {
		return 0, err
	}

	var (
		done   int
		failed error
	)
	for _, id := range selected {
		if err := d.api.UnassignOrder(ctx, id); err != nil {
			slog.Error("Failed to unassign order", "error", err, "orderID", id, "rollID", rollID)
			failed = &ErrUnassignFailed{OrderID: id, Done: done, Total: len(selected), Err: err}
			break
		}
		done++
	}
	t.finish()

	if err := d.Reload(context.WithoutCancel(ctx), "unassign"); err != nil {
		return done, errors.Join(failed, err)
	}
	return done, failed
}

func (d *DefaultService) RollDetails(ctx context.Context, rollID int64) (*api.RollDetails, error) {
	details, err := d.api.RollDetails(ctx, rollID)
	if err != nil {
		slog.Error("Failed to load roll details", "error", err, "rollID", rollID)
		return nil, err
	}
	RecomputeUsage(&details.Roll)
	return details, nil
}

// Reload replaces the local board with the server's. Concurrent calls share
// one request.
func (d *DefaultService) Reload(ctx context.Context, trigger string) error {
	_, err, _ := d.flight.Do("reload", func() (any, error) {
		snap, err := d.api.GetBoard(ctx, d.area)
		if err != nil {
			metrics.BoardReloads.WithLabelValues(trigger, "failed").Inc()
			slog.Error("Failed to reload board", "error", err, "trigger", trigger)
			return nil, err
		}

		state := Normalize(snap.PendingOrders, snap.Rolls)
		if err := CheckInvariants(state); err != nil {
			slog.Warn("Server board is inconsistent", "error", err)
		}

		d.mu.Lock()
		d.state = state
		d.version++
		d.mu.Unlock()

		metrics.BoardReloads.WithLabelValues(trigger, "ok").Inc()
		slog.Debug("Board reloaded", "trigger", trigger, "pending", len(state.Pending), "rolls", len(state.Rolls))
		return nil, nil
	})
	return err
}

// RequestReload is the entry point for external invalidations. While a
// gesture is in flight the reload is postponed until it ends.
func (d *DefaultService) RequestReload(ctx context.Context, trigger string) error {
	if d.gestures.Load() > 0 {
		d.deferred.Store(true)
		// the gesture may have ended between the two calls above
		if d.gestures.Load() > 0 || !d.deferred.CompareAndSwap(true, false) {
			return nil
		}
	}
	return d.Reload(ctx, trigger)
}

func (d *DefaultService) BeginGesture() {
	d.gestures.Inc()
}

func (d *DefaultService) EndGesture(ctx context.Context) {
	if d.gestures.Dec() > 0 {
		return
	}
	if d.deferred.CompareAndSwap(true, false) {
		if err := d.Reload(ctx, "deferred"); err != nil {
			slog.Error("Deferred board reload failed", "error", err)
		}
	}
}

func touchedRolls(cmd MoveCommand) []int64 {
	var ids []int64
	for _, c := range []Container{cmd.Source, cmd.Dest} {
		if !c.IsPending() {
			ids = append(ids, c.RollID)
		}
	}
	return ids
}
