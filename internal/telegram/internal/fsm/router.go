package fsm

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type HandlerFunc func(ctx *ConversationContext[StateData]) error

// AttachmentHandler receives messages carrying files while the user is not
// in the middle of a conversation.
type AttachmentHandler func(ctx context.Context, api *bot.Bot, update *models.Update)

type Router struct {
	fsm        *FSM
	handlers   map[ConversationStep]HandlerFunc
	attachment AttachmentHandler
	operators  []int64
	mu         *sync.RWMutex
}

// NewRouter builds a router that only serves the given operators. An empty
// list serves nobody.
func NewRouter(fsm *FSM, operators []int64) *Router {
	return &Router{
		fsm:       fsm,
		handlers:  make(map[ConversationStep]HandlerFunc),
		operators: slices.Clone(operators),
		mu:        &sync.RWMutex{},
	}
}

func (r *Router) RegisterHandler(step ConversationStep, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[step] = handler
}

func (r *Router) SetAttachmentHandler(handler AttachmentHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attachment = handler
}

func (r *Router) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var userID int64
		switch {
		case update.Message != nil && update.Message.From != nil:
			userID = update.Message.From.ID
		case update.CallbackQuery != nil:
			userID = update.CallbackQuery.From.ID
		default:
			return
		}

		if !slices.Contains(r.operators, userID) {
			slog.Warn("Ignoring update from unknown user", "userID", userID)
			return
		}

		if update.Message != nil && strings.HasPrefix(update.Message.Text, "/") {
			r.fsm.ResetState(userID)
			next(ctx, b, update)
			return
		}

		state := r.fsm.GetOrCreateState(userID)

		r.mu.RLock()
		handler, exists := r.handlers[state.Step]
		attachment := r.attachment
		r.mu.RUnlock()

		if exists {
			convCtx := &ConversationContext[StateData]{
				Ctx:    ctx,
				Bot:    b,
				Update: update,
				UserID: userID,
				Data:   state.Data,
				router: r,
				step:   state.Step,
			}
			if err := handler(convCtx); err != nil && !errors.Is(err, ErrIncompatibleHandler) {
				slog.Error("Conversation handler failed", "error", err, "userID", userID, "step", state.Step)
			}
			return
		}

		if update.Message != nil && attachment != nil && hasAttachment(update.Message) {
			attachment(ctx, b, update)
			return
		}

		r.fsm.ResetState(userID)
		next(ctx, b, update)
	}
}

func (r *Router) Transition(userID int64, nextStep ConversationStep, data StateData) {
	r.fsm.SetState(userID, nextStep, data)
}

func (r *Router) Reset(userID int64) {
	r.fsm.ResetState(userID)
}

func (r *Router) State(userID int64) State {
	return r.fsm.GetOrCreateState(userID)
}

func hasAttachment(message *models.Message) bool {
	return message.Document != nil || len(message.Photo) > 0
}
