package fsm

import (
	"errors"
	"fmt"
)

var ErrIncompatibleHandler = errors.New("incompatible handler")

type TextHandler[T StateData] func(*ConversationContext[T], string) error

type CallbackHandler[T StateData] func(*ConversationContext[T], string) error

func Chain[T StateData](router *Router, name string, initialStep ConversationStep) *ChainDefinition[T] {
	return &ChainDefinition[T]{
		name:    name,
		router:  router,
		current: initialStep,
	}
}

type ChainDefinition[T StateData] struct {
	name    string
	router  *Router
	current ConversationStep
}

func (c *ChainDefinition[T]) OnText(handler TextHandler[T]) *ChainDefinition[T] {
	c.router.RegisterHandler(c.current, c.wrap(func(ctx *ConversationContext[T]) error {
		if ctx.Update.Message == nil {
			return ErrIncompatibleHandler
		}
		return handler(ctx, ctx.Update.Message.Text)
	}))
	return c
}

func (c *ChainDefinition[T]) OnCallback(handler CallbackHandler[T]) *ChainDefinition[T] {
	c.router.RegisterHandler(c.current, c.wrap(func(ctx *ConversationContext[T]) error {
		if ctx.Update.CallbackQuery == nil {
			return ErrIncompatibleHandler
		}
		return handler(ctx, ctx.Update.CallbackQuery.Data)
	}))
	return c
}

func (c *ChainDefinition[T]) Then(nextStep ConversationStep) *ChainDefinition[T] {
	c.current = nextStep
	return c
}

func (c *ChainDefinition[T]) wrap(handler func(*ConversationContext[T]) error) HandlerFunc {
	return func(ctx *ConversationContext[StateData]) error {
		typedData, ok := ctx.Data.(T)
		if !ok {
			ctx.router.Reset(ctx.UserID)
			return fmt.Errorf("%s: unexpected state data %T", c.name, ctx.Data)
		}
		return handler(&ConversationContext[T]{
			Ctx:    ctx.Ctx,
			Bot:    ctx.Bot,
			Update: ctx.Update,
			UserID: ctx.UserID,
			Data:   typedData,
			router: ctx.router,
			step:   ctx.step,
		})
	}
}
