package telegram

import (
	"context"
	"fmt"

	"print-roll-console/internal/board"
	"print-roll-console/internal/pkg/model"
	"print-roll-console/internal/telegram/internal/fsm"
	"print-roll-console/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleRenameCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	roll, ok := b.rollFromArgs(ctx, userID, update.Message.Text, "/rename <id>")
	if !ok {
		return
	}
	b.router.Transition(userID, fsm.StepAwaitingRenameName, &fsm.RollData{RollID: roll.ID})
	b.sendText(ctx, userID, presentation.AskRenameMsg(roll))
}

func (b *Bot) handleDismantleCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	roll, ok := b.rollFromArgs(ctx, userID, update.Message.Text, "/dismantle <id>")
	if !ok {
		return
	}
	if roll.Locked() {
		b.sendError(ctx, userID, board.ErrRollLocked)
		return
	}
	b.router.Transition(userID, fsm.StepAwaitingDismantleConfirmation, &fsm.RollData{RollID: roll.ID})
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      userID,
		Text:        presentation.DismantleConfirmMsg(roll),
		ReplyMarkup: presentation.YesNoKbd(),
	})
}

func (b *Bot) setupRollEditFlows() {
	fsm.Chain[*fsm.RollData](b.router, "roll_rename", fsm.StepAwaitingRenameName).
		OnText(func(ctx *fsm.ConversationContext[*fsm.RollData], text string) error {
			if err := b.boardService.RenameRoll(ctx.Ctx, ctx.Data.RollID, text); err != nil {
				return ctx.Complete(presentation.ErrorMsg(err))
			}
			roll, _ := b.boardService.Snapshot().Roll(ctx.Data.RollID)
			return ctx.Complete(presentation.RollRenamedMsg(roll.Name))
		})

	fsm.Chain[*fsm.RollData](b.router, "roll_dismantle", fsm.StepAwaitingDismantleConfirmation).
		OnCallback(func(ctx *fsm.ConversationContext[*fsm.RollData], data string) error {
			ctx.AnswerCallback()
			switch data {
			case "yes":
				if err := b.boardService.DismantleRoll(ctx.Ctx, ctx.Data.RollID); err != nil {
					return ctx.Complete(presentation.ErrorMsg(err))
				}
				return ctx.Complete(presentation.DismantledMsg())
			case "no":
				return ctx.Complete(presentation.DismantleCancelledMsg())
			default:
				return nil
			}
		})
}

// rollFromArgs resolves the single roll id argument of a command against
// the local board, answering the user when it cannot.
func (b *Bot) rollFromArgs(ctx context.Context, chatID int64, text, usage string) (roll model.Roll, ok bool) {
	args := commandArgs(text)
	if len(args) != 1 {
		b.sendText(ctx, chatID, presentation.UsageMsg(usage))
		return roll, false
	}
	rollID, err := parseID(args[0])
	if err != nil {
		b.sendText(ctx, chatID, presentation.UsageMsg(usage))
		return roll, false
	}
	found, exists := b.boardService.Snapshot().Roll(rollID)
	if !exists {
		b.sendError(ctx, chatID, fmt.Errorf("%w: %d", board.ErrRollNotFound, rollID))
		return roll, false
	}
	return found, true
}
