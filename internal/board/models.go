package board

import (
	"strconv"

	"print-roll-console/internal/pkg/model"
)

type ContainerKind int

const (
	ContainerPending ContainerKind = iota
	ContainerRoll
)

// Container addresses either the pending pool or one roll.
type Container struct {
	Kind   ContainerKind
	RollID int64
}

func PendingPool() Container {
	return Container{Kind: ContainerPending}
}

func RollContainer(rollID int64) Container {
	return Container{Kind: ContainerRoll, RollID: rollID}
}

func (c Container) IsPending() bool {
	return c.Kind == ContainerPending
}

func (c Container) String() string {
	if c.IsPending() {
		return "pending"
	}
	return "roll:" + strconv.FormatInt(c.RollID, 10)
}

// MoveCommand is what a drag gesture boils down to. DestIndex is the position
// in the destination list after the order has been taken out of its source.
type MoveCommand struct {
	Source    Container
	Dest      Container
	OrderID   int64
	DestIndex int
}

type MoveKind string

const (
	MovePendingToRoll MoveKind = "pending_to_roll"
	MoveReorder       MoveKind = "reorder"
	MoveRollToRoll    MoveKind = "roll_to_roll"
	MoveRollToPending MoveKind = "roll_to_pending"
)

func (c MoveCommand) Kind() MoveKind {
	switch {
	case c.Source.IsPending():
		return MovePendingToRoll
	case c.Dest.IsPending():
		return MoveRollToPending
	case c.Source.RollID == c.Dest.RollID:
		return MoveReorder
	default:
		return MoveRollToRoll
	}
}

type BoardState struct {
	Pending []model.PendingOrder `json:"pending"`
	Rolls   []model.Roll         `json:"rolls"`
}

// PendingFilter narrows the visible pending pool. Empty fields match
// everything; multiple values within a field are alternatives.
type PendingFilter struct {
	Priorities []model.OrderPriority
	Materials  []string
	Variants   []string
	Types      []model.OrderType
}

type CapacityLevel string

const (
	CapacityOK      CapacityLevel = "ok"
	CapacityWarning CapacityLevel = "warning"
	CapacityOver    CapacityLevel = "over"
)
