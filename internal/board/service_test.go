package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"print-roll-console/internal/api"
	"print-roll-console/internal/pkg/model"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errServer = errors.New("server said no")

type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	server api.BoardSnapshot
	reads  int

	failRead     error
	failMove     error
	failReorder  error
	failRename   error
	failUnassign map[int64]error
	// hook runs before a call is recorded
	hook func(call string)
}

func (f *fakeAPI) record(call string) {
	if f.hook != nil {
		f.hook(call)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeAPI) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeAPI) GetBoard(_ context.Context, _ string) (*api.BoardSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.failRead != nil {
		return nil, f.failRead
	}
	snap := f.server
	return &snap, nil
}

func (f *fakeAPI) CreateRoll(_ context.Context, req api.RequestCreateRoll) (*model.Roll, error) {
	f.record("create " + req.Name)
	return &model.Roll{ID: 77, Name: req.Name, Capacity: req.Capacity, Color: req.Color}, nil
}

func (f *fakeAPI) RenameRoll(_ context.Context, rollID int64, name string) (*model.Roll, error) {
	f.record(fmt.Sprintf("rename %d %s", rollID, name))
	if f.failRename != nil {
		return nil, f.failRename
	}
	return &model.Roll{ID: rollID, Name: name}, nil
}

func (f *fakeAPI) MoveOrder(_ context.Context, orderID, targetRollID int64) error {
	f.record(fmt.Sprintf("move %d->%d", orderID, targetRollID))
	return f.failMove
}

func (f *fakeAPI) UnassignOrder(_ context.Context, orderID int64) error {
	f.record(fmt.Sprintf("unassign %d", orderID))
	return f.failUnassign[orderID]
}

func (f *fakeAPI) ReorderRoll(_ context.Context, rollID int64, orderIDs []int64) error {
	f.record(fmt.Sprintf("reorder %d %v", rollID, orderIDs))
	return f.failReorder
}

func (f *fakeAPI) DismantleRoll(_ context.Context, rollID int64) error {
	f.record(fmt.Sprintf("dismantle %d", rollID))
	return nil
}

func (f *fakeAPI) RollDetails(_ context.Context, rollID int64) (*api.RollDetails, error) {
	f.record(fmt.Sprintf("details %d", rollID))
	return &api.RollDetails{Roll: model.Roll{ID: rollID, Orders: []model.PendingOrder{order(1, 2), order(2, 3)}}}, nil
}

func newTestService(t *testing.T, server api.BoardSnapshot) (*DefaultService, *fakeAPI) {
	t.Helper()
	fake := &fakeAPI{server: server}
	svc := NewDefaultService(fake, "impresion").(*DefaultService)
	require.NoError(t, svc.Reload(context.Background(), "test"))
	return svc, fake
}

func sampleBoard() api.BoardSnapshot {
	machine := int64(3)
	locked := model.Roll{ID: 9, Name: "Locked", Capacity: decimal.NewFromInt(50), Status: model.RollPlanning, MachineID: &machine,
		Orders: []model.PendingOrder{order(20, 4)}}
	return api.BoardSnapshot{
		PendingOrders: []model.PendingOrder{order(1, 10), order(2, 5)},
		Rolls: []model.Roll{
			{ID: 1, Name: "R1", Capacity: decimal.NewFromInt(50), Status: model.RollPlanning},
			{ID: 2, Name: "R2", Capacity: decimal.NewFromInt(50), Status: model.RollPlanning,
				Orders: []model.PendingOrder{order(10, 3), order(11, 4)}},
			locked,
		},
	}
}

func TestServiceMovePersists(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, sampleBoard())

	require.NoError(t, svc.Move(ctx, MoveCommand{Source: PendingPool(), Dest: RollContainer(1), OrderID: 1}))
	require.NoError(t, svc.Move(ctx, MoveCommand{Source: PendingPool(), Dest: RollContainer(1), OrderID: 2}))
	require.NoError(t, svc.Move(ctx, MoveCommand{Source: RollContainer(2), Dest: RollContainer(2), OrderID: 10, DestIndex: 1}))
	require.NoError(t, svc.Move(ctx, MoveCommand{Source: RollContainer(2), Dest: RollContainer(1), OrderID: 11, DestIndex: 2}))
	require.NoError(t, svc.Move(ctx, MoveCommand{Source: RollContainer(2), Dest: PendingPool(), OrderID: 10}))

	assert.Equal(t, []string{
		"move 1->1", "reorder 1 [1]",
		"move 2->1", "reorder 1 [2 1]",
		"reorder 2 [11 10]",
		"move 11->1", "reorder 1 [2 1 11]",
		"unassign 10",
	}, fake.Calls())

	state := svc.Snapshot()
	r1, _ := state.Roll(1)
	assert.Equal(t, []int64{2, 1, 11}, OrderIDs(r1.Orders))
	assert.Equal(t, "19", r1.CurrentUsage.String())
	assert.Equal(t, []int64{10}, OrderIDs(state.Pending))
	require.NoError(t, CheckInvariants(state))
}

func TestServiceMoveNoopAndLocked(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, sampleBoard())

	require.NoError(t, svc.Move(ctx, MoveCommand{Source: RollContainer(2), Dest: RollContainer(2), OrderID: 10, DestIndex: 0}))

	err := svc.Move(ctx, MoveCommand{Source: PendingPool(), Dest: RollContainer(9), OrderID: 1})
	assert.ErrorIs(t, err, ErrRollLocked)

	err = svc.Move(ctx, MoveCommand{Source: RollContainer(9), Dest: PendingPool(), OrderID: 20})
	assert.ErrorIs(t, err, ErrRollLocked)

	assert.Empty(t, fake.Calls())
	assert.Equal(t, []int64{1, 2}, OrderIDs(svc.Snapshot().Pending))
}

func TestServiceMoveRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	server := sampleBoard()
	svc, fake := newTestService(t, server)
	fake.failMove = errServer

	err := svc.Move(ctx, MoveCommand{Source: PendingPool(), Dest: RollContainer(1), OrderID: 1})

	var persist *ErrPersistFailed
	require.ErrorAs(t, err, &persist)
	assert.Equal(t, string(MovePendingToRoll), persist.Op)
	assert.ErrorIs(t, err, errServer)

	// the initial load plus the reload after the rollback
	assert.Equal(t, 2, fake.Reads())

	state := svc.Snapshot()
	assert.Equal(t, []int64{1, 2}, OrderIDs(state.Pending))
	r1, _ := state.Roll(1)
	assert.Empty(t, r1.Orders)
	assert.True(t, r1.CurrentUsage.IsZero())
}

func TestServiceMoveRestoresSnapshotWhenServerIsDown(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		failMove  error
		failOrder error
		wantCalls []string
	}{
		{"move fails", errServer, nil, []string{"move 1->1"}},
		{"reorder fails after move", nil, errServer, []string{"move 1->1", "reorder 1 [1]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fake := newTestService(t, sampleBoard())
			before := svc.Snapshot()
			fake.failMove = tt.failMove
			fake.failReorder = tt.failOrder
			// the reload after the rollback fails too, so only the snapshot
			// can put the board back
			fake.failRead = errServer

			err := svc.Move(ctx, MoveCommand{Source: PendingPool(), Dest: RollContainer(1), OrderID: 1})

			var persist *ErrPersistFailed
			require.ErrorAs(t, err, &persist)
			assert.Equal(t, string(MovePendingToRoll), persist.Op)
			assert.Equal(t, tt.wantCalls, fake.Calls())
			assert.Equal(t, 2, fake.Reads())

			after := svc.Snapshot()
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("board after rollback (-want +got):\n%s", diff)
			}
			require.NoError(t, CheckInvariants(after))
		})
	}
}

func TestServiceMovesOnOneRollKeepOrder(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, sampleBoard())

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake.hook = func(call string) {
		if call == "move 1->1" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.Move(ctx, MoveCommand{Source: PendingPool(), Dest: RollContainer(1), OrderID: 1}))
	}()
	<-entered
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.Move(ctx, MoveCommand{Source: PendingPool(), Dest: RollContainer(1), OrderID: 2}))
	}()

	// the second move is already visible locally while the first is in flight
	assert.Eventually(t, func() bool {
		r1, _ := svc.Snapshot().Roll(1)
		return len(r1.Orders) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, fake.Calls())

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"move 1->1", "reorder 1 [1]", "move 2->1", "reorder 1 [2 1]"}, fake.Calls())
}

func TestServiceCreateRoll(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, sampleBoard())

	_, err := svc.CreateRoll(ctx, "  ", decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, ErrInvalidRollName)
	_, err = svc.CreateRoll(ctx, "Nuevo", decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	roll, err := svc.CreateRoll(ctx, " Nuevo ", decimal.NewFromInt(30), "")
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", roll.Name)
	assert.Equal(t, DefaultRollColor, roll.Color)
	assert.Equal(t, model.RollPlanning, roll.Status)
	assert.Equal(t, []string{"create Nuevo"}, fake.Calls())

	_, ok := svc.Snapshot().Roll(77)
	assert.True(t, ok)
}

func TestServiceRenameRoll(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, sampleBoard())

	require.NoError(t, svc.RenameRoll(ctx, 1, "Vinilo mate"))
	r1, _ := svc.Snapshot().Roll(1)
	assert.Equal(t, "Vinilo mate", r1.Name)

	fake.failRename = errServer
	err := svc.RenameRoll(ctx, 1, "Otro")
	assert.ErrorIs(t, err, errServer)
	r1, _ = svc.Snapshot().Roll(1)
	assert.Equal(t, "Vinilo mate", r1.Name)

	assert.ErrorIs(t, svc.RenameRoll(ctx, 404, "x"), ErrRollNotFound)
	assert.ErrorIs(t, svc.RenameRoll(ctx, 1, ""), ErrInvalidRollName)
}

func TestServiceUnassignOrders(t *testing.T) {
	ctx := context.Background()
	server := sampleBoard()
	server.Rolls[1].Orders = append(server.Rolls[1].Orders, order(12, 1))
	svc, fake := newTestService(t, server)

	t.Run("stops at the first failure and reloads", func(t *testing.T) {
		fake.failUnassign = map[int64]error{11: errServer}
		n, err := svc.UnassignOrders(ctx, 2, []int64{10, 11, 12, 999})

		var unassign *ErrUnassignFailed
		require.ErrorAs(t, err, &unassign)
		assert.EqualValues(t, 11, unassign.OrderID)
		assert.Equal(t, 1, unassign.Done)
		assert.Equal(t, 3, unassign.Total)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"unassign 10", "unassign 11"}, fake.Calls())
		assert.Equal(t, 2, fake.Reads())
	})

	t.Run("counts only orders actually in the roll", func(t *testing.T) {
		fake.failUnassign = nil
		before := len(fake.Calls())

		n, err := svc.UnassignOrders(ctx, 2, []int64{10, 10, 12, 999})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"unassign 10", "unassign 12"}, fake.Calls()[before:])
	})

	t.Run("nothing selected", func(t *testing.T) {
		n, err := svc.UnassignOrders(ctx, 2, []int64{999})
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Zero(t, n)
	})

	t.Run("locked roll", func(t *testing.T) {
		_, err := svc.UnassignOrders(ctx, 9, []int64{20})
		assert.ErrorIs(t, err, ErrRollLocked)
	})
}

func TestServiceDismantleRoll(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, sampleBoard())

	assert.ErrorIs(t, svc.DismantleRoll(ctx, 9), ErrRollLocked)
	assert.ErrorIs(t, svc.DismantleRoll(ctx, 404), ErrRollNotFound)
	assert.Empty(t, fake.Calls())

	require.NoError(t, svc.DismantleRoll(ctx, 2))
	assert.Equal(t, []string{"dismantle 2"}, fake.Calls())
	assert.Equal(t, 2, fake.Reads())
}

func TestServiceRollDetailsRecomputesUsage(t *testing.T) {
	svc, _ := newTestService(t, sampleBoard())

	details, err := svc.RollDetails(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "5", details.CurrentUsage.String())
}

func TestServiceReloadDeferredDuringGesture(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, sampleBoard())

	svc.BeginGesture()
	require.NoError(t, svc.RequestReload(ctx, "push"))
	require.NoError(t, svc.RequestReload(ctx, "push"))
	assert.Equal(t, 1, fake.Reads())

	svc.EndGesture(ctx)
	assert.Equal(t, 2, fake.Reads())

	require.NoError(t, svc.RequestReload(ctx, "push"))
	assert.Equal(t, 3, fake.Reads())
}

func TestServicePendingFilter(t *testing.T) {
	server := sampleBoard()
	server.PendingOrders[1].Priority = model.PriorityUrgente
	svc, _ := newTestService(t, server)

	urgent := svc.Pending(PendingFilter{Priorities: []model.OrderPriority{model.PriorityUrgente}})
	assert.Equal(t, []int64{2}, OrderIDs(urgent))
	assert.Len(t, svc.Snapshot().Pending, 2)
}

func TestSequencerOrdersTurnsPerKey(t *testing.T) {
	s := newSequencer()
	first := s.enqueue(1, 2)
	second := s.enqueue(2)
	third := s.enqueue(3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, second.wait(ctx), context.DeadlineExceeded)

	require.NoError(t, third.wait(context.Background()))
	third.finish()

	fourth := s.enqueue(2)
	first.finish()
	// second was abandoned, it releases its slot once first is done
	require.NoError(t, fourth.wait(context.Background()))
	fourth.finish()
}
