package board

import (
	"fmt"
	"slices"

	"print-roll-console/internal/pkg/model"

	"github.com/shopspring/decimal"
)

var (
	warningPercent = decimal.NewFromInt(85)
	fullPercent    = decimal.NewFromInt(100)
)

// Clone copies every slice of the state, so mutating the copy never shows
// through to the original.
func (s BoardState) Clone() BoardState {
	next := BoardState{
		Pending: slices.Clone(s.Pending),
		Rolls:   make([]model.Roll, len(s.Rolls)),
	}
	for i, roll := range s.Rolls {
		roll.Orders = slices.Clone(roll.Orders)
		next.Rolls[i] = roll
	}
	return next
}

func (s BoardState) Roll(rollID int64) (model.Roll, bool) {
	i := s.rollIndex(rollID)
	if i < 0 {
		return model.Roll{}, false
	}
	return s.Rolls[i], true
}

// Locate reports the container currently holding orderID.
func (s BoardState) Locate(orderID int64) (Container, bool) {
	if indexOfOrder(s.Pending, orderID) >= 0 {
		return PendingPool(), true
	}
	for _, roll := range s.Rolls {
		if indexOfOrder(roll.Orders, orderID) >= 0 {
			return RollContainer(roll.ID), true
		}
	}
	return Container{}, false
}

func (s BoardState) rollIndex(rollID int64) int {
	return slices.IndexFunc(s.Rolls, func(r model.Roll) bool { return r.ID == rollID })
}

// ApplyMove returns the board after cmd. The input state is never modified.
// Locked rolls refuse both insertions and removals before anything else is
// looked at.
func ApplyMove(state BoardState, cmd MoveCommand) (BoardState, error) {
	if cmd.DestIndex < 0 {
		return state, ErrInvalidIndex
	}
	if cmd.Source.IsPending() && cmd.Dest.IsPending() {
		return state, ErrNoop
	}

	next := state.Clone()

	dest, err := next.list(cmd.Dest)
	if err != nil {
		return state, err
	}
	src, err := next.list(cmd.Source)
	if err != nil {
		return state, err
	}

	pos := indexOfOrder(*src, cmd.OrderID)
	if pos < 0 {
		return state, ErrOrderNotFound
	}

	sameContainer := cmd.Source == cmd.Dest
	order := (*src)[pos]
	*src = slices.Delete(*src, pos, pos+1)

	idx := min(cmd.DestIndex, len(*dest))
	if sameContainer && idx == pos {
		return state, ErrNoop
	}

	if cmd.Dest.IsPending() {
		order.RollID = nil
		order.Sequence = nil
	} else {
		rollID := cmd.Dest.RollID
		order.RollID = &rollID
	}
	*dest = slices.Insert(*dest, idx, order)

	for _, c := range []Container{cmd.Source, cmd.Dest} {
		if c.IsPending() {
			continue
		}
		roll := &next.Rolls[next.rollIndex(c.RollID)]
		Resequence(roll)
		RecomputeUsage(roll)
	}
	return next, nil
}

// list returns the order slice behind c, refusing locked rolls.
func (s *BoardState) list(c Container) (*[]model.PendingOrder, error) {
	if c.IsPending() {
		return &s.Pending, nil
	}
	i := s.rollIndex(c.RollID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrRollNotFound, c.RollID)
	}
	if s.Rolls[i].Locked() {
		return nil, fmt.Errorf("%w: %d", ErrRollLocked, c.RollID)
	}
	return &s.Rolls[i].Orders, nil
}

// RecomputeUsage sets CurrentUsage to the exact sum of order magnitudes.
func RecomputeUsage(roll *model.Roll) {
	usage := decimal.Zero
	for _, o := range roll.Orders {
		usage = usage.Add(o.Magnitude)
	}
	roll.CurrentUsage = usage
}

// Resequence numbers the orders of a roll 1..n in list order.
func Resequence(roll *model.Roll) {
	for i := range roll.Orders {
		seq := i + 1
		roll.Orders[i].Sequence = &seq
	}
}

func OrderIDs(orders []model.PendingOrder) []int64 {
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

// Normalize turns a server snapshot into a board: usage is recomputed from
// the orders and roll references are filled in.
func Normalize(pending []model.PendingOrder, rolls []model.Roll) BoardState {
	state := BoardState{
		Pending: slices.Clone(pending),
		Rolls:   make([]model.Roll, len(rolls)),
	}
	if state.Pending == nil {
		state.Pending = []model.PendingOrder{}
	}
	for i := range state.Pending {
		state.Pending[i].RollID = nil
	}
	for i, roll := range rolls {
		roll.Orders = slices.Clone(roll.Orders)
		if roll.Orders == nil {
			roll.Orders = []model.PendingOrder{}
		}
		for j := range roll.Orders {
			rollID := roll.ID
			roll.Orders[j].RollID = &rollID
		}
		RecomputeUsage(&roll)
		state.Rolls[i] = roll
	}
	return state
}

// CheckInvariants verifies that every order lives in exactly one container
// and that every roll's usage matches its orders.
func CheckInvariants(state BoardState) error {
	seen := make(map[int64]Container)
	visit := func(c Container, orders []model.PendingOrder) error {
		for _, o := range orders {
			if prev, ok := seen[o.ID]; ok {
				return fmt.Errorf("%w: order %d in both %s and %s", ErrInvariantViolated, o.ID, prev, c)
			}
			seen[o.ID] = c
		}
		return nil
	}

	if err := visit(PendingPool(), state.Pending); err != nil {
		return err
	}
	for _, roll := range state.Rolls {
		if err := visit(RollContainer(roll.ID), roll.Orders); err != nil {
			return err
		}
		expected := roll
		RecomputeUsage(&expected)
		if !expected.CurrentUsage.Equal(roll.CurrentUsage) {
			return fmt.Errorf("%w: roll %d usage %s, orders sum to %s",
				ErrInvariantViolated, roll.ID, roll.CurrentUsage, expected.CurrentUsage)
		}
	}
	return nil
}

// UsagePercent is advisory only; capacity never blocks a move.
func UsagePercent(roll model.Roll) decimal.Decimal {
	if !roll.Capacity.IsPositive() {
		return decimal.Zero
	}
	return roll.CurrentUsage.Div(roll.Capacity).Mul(fullPercent).Round(1)
}

func Level(roll model.Roll) CapacityLevel {
	p := UsagePercent(roll)
	switch {
	case p.GreaterThan(fullPercent):
		return CapacityOver
	case p.GreaterThanOrEqual(warningPercent):
		return CapacityWarning
	default:
		return CapacityOK
	}
}

// FilterPending returns the visible subset of pending without touching it.
func FilterPending(pending []model.PendingOrder, f PendingFilter) []model.PendingOrder {
	out := make([]model.PendingOrder, 0, len(pending))
	for _, o := range pending {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// SelectAll returns the ids of the orders currently visible under f.
func SelectAll(pending []model.PendingOrder, f PendingFilter) []int64 {
	return OrderIDs(FilterPending(pending, f))
}

func (f PendingFilter) Match(o model.PendingOrder) bool {
	return matches(f.Priorities, o.Priority) &&
		matches(f.Materials, o.Material) &&
		matches(f.Variants, o.Variant) &&
		matches(f.Types, o.Type)
}

func (f PendingFilter) IsEmpty() bool {
	return len(f.Priorities) == 0 && len(f.Materials) == 0 && len(f.Variants) == 0 && len(f.Types) == 0
}

func matches[T comparable](allowed []T, v T) bool {
	return len(allowed) == 0 || slices.Contains(allowed, v)
}

func indexOfOrder(orders []model.PendingOrder, orderID int64) int {
	return slices.IndexFunc(orders, func(o model.PendingOrder) bool { return o.ID == orderID })
}
