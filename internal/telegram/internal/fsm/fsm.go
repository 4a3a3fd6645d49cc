package fsm

import (
	"sync"
)

type FSM struct {
	states map[int64]State
	mu     *sync.RWMutex
}

type State struct {
	Step ConversationStep
	Data StateData
}

func NewFSM() *FSM {
	return &FSM{
		states: make(map[int64]State),
		mu:     &sync.RWMutex{},
	}
}

func (f *FSM) GetOrCreateState(userID int64) State {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.states[userID]
	if !ok {
		state = State{
			Step: StepIdle,
			Data: &IdleData{},
		}
		f.states[userID] = state
	}
	return state
}

// SetState replaces both the step and the data. A nil data keeps the
// previous data.
func (f *FSM) SetState(userID int64, step ConversationStep, data StateData) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.states[userID]
	if !ok {
		state.Data = &IdleData{}
	}
	state.Step = step
	if data != nil {
		state.Data = data
	}
	f.states[userID] = state
}

func (f *FSM) ResetState(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.states[userID] = State{Step: StepIdle, Data: &IdleData{}}
}
