package fsm

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type ConversationContext[T StateData] struct {
	Ctx    context.Context
	Bot    *bot.Bot
	Update *models.Update
	UserID int64
	Data   T
	router *Router
	step   ConversationStep
}

func (c *ConversationContext[T]) SendMessage(text string, markup models.ReplyMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:      c.UserID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	}
	_, err := c.Bot.SendMessage(c.Ctx, params)
	return err
}

// AnswerCallback acknowledges the pressed button so the client stops its
// spinner.
func (c *ConversationContext[T]) AnswerCallback() {
	if c.Update.CallbackQuery == nil {
		return
	}
	_, _ = c.Bot.AnswerCallbackQuery(c.Ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: c.Update.CallbackQuery.ID,
	})
}

func (c *ConversationContext[T]) Step() ConversationStep {
	return c.step
}

func (c *ConversationContext[T]) Transition(nextStep ConversationStep, data StateData) {
	c.router.Transition(c.UserID, nextStep, data)
}

// Complete ends the conversation, sending msg first when it is not empty.
func (c *ConversationContext[T]) Complete(msg string) error {
	c.router.Reset(c.UserID)
	if msg == "" {
		return nil
	}
	return c.SendMessage(msg, nil)
}
