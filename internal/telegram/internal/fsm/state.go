package fsm

import (
	"print-roll-console/internal/board"

	"github.com/shopspring/decimal"
)

type ConversationStep int

const (
	StepIdle ConversationStep = iota
	StepAwaitingRollName
	StepAwaitingRollCapacity
	StepAwaitingRollColor
	StepAwaitingRenameName
	StepAwaitingDismantleConfirmation
	StepAwaitingPendingSliderAction
)

type StateData interface {
	StateData()
}

type IdleData struct{}

func (data *IdleData) StateData() {}

type NewRollData struct {
	Name     string
	Capacity decimal.Decimal
}

func (data *NewRollData) StateData() {}

type RollData struct {
	RollID int64
}

func (data *RollData) StateData() {}

type PendingSliderData struct {
	Filter      board.PendingFilter
	CurrentPage int
}

func (data *PendingSliderData) StateData() {}
