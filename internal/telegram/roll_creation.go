package telegram

import (
	"context"
	"strings"

	"print-roll-console/internal/telegram/internal/fsm"
	"print-roll-console/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleNewRollCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	b.router.Transition(userID, fsm.StepAwaitingRollName, &fsm.NewRollData{})
	b.sendText(ctx, userID, presentation.AskRollNameMsg())
}

func (b *Bot) setupRollCreationFlow() {
	fsm.Chain[*fsm.NewRollData](b.router, "roll_creation", fsm.StepAwaitingRollName).
		OnText(func(ctx *fsm.ConversationContext[*fsm.NewRollData], text string) error {
			name := strings.TrimSpace(text)
			if name == "" {
				return ctx.SendMessage(presentation.AskRollNameMsg(), nil)
			}
			ctx.Data.Name = name
			ctx.Transition(fsm.StepAwaitingRollCapacity, ctx.Data)
			return ctx.SendMessage(presentation.AskRollCapacityMsg(), nil)
		}).
		Then(fsm.StepAwaitingRollCapacity).
		OnText(func(ctx *fsm.ConversationContext[*fsm.NewRollData], text string) error {
			capacity, err := parseCapacity(text)
			if err != nil {
				return ctx.SendMessage(presentation.CapacityValidationErrorMsg(), nil)
			}
			ctx.Data.Capacity = capacity
			ctx.Transition(fsm.StepAwaitingRollColor, ctx.Data)
			return ctx.SendMessage(presentation.AskRollColorMsg(), presentation.ColorKbd())
		}).
		Then(fsm.StepAwaitingRollColor).
		OnCallback(func(ctx *fsm.ConversationContext[*fsm.NewRollData], data string) error {
			ctx.AnswerCallback()
			color := data
			if data == "skip" {
				color = ""
			}
			roll, err := b.boardService.CreateRoll(ctx.Ctx, ctx.Data.Name, ctx.Data.Capacity, color)
			if err != nil {
				return ctx.Complete(presentation.ErrorMsg(err))
			}
			return ctx.Complete(presentation.RollCreatedMsg(roll))
		})
}
