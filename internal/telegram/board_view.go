package telegram

import (
	"context"

	"print-roll-console/internal/telegram/internal/fsm"
	"print-roll-console/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleBoardCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	b.sendText(ctx, update.Message.Chat.ID, presentation.BoardMsg(b.boardService.Snapshot()))
}

func (b *Bot) handleReloadCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	if err := b.boardService.Reload(ctx, "manual"); err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	b.sendText(ctx, chatID, presentation.BoardReloadedMsg())
}

func (b *Bot) handleRollCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		b.sendText(ctx, chatID, presentation.UsageMsg("/roll <id>"))
		return
	}
	rollID, err := parseID(args[0])
	if err != nil {
		b.sendText(ctx, chatID, presentation.UsageMsg("/roll <id>"))
		return
	}

	details, err := b.boardService.RollDetails(ctx, rollID)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	b.sendText(ctx, chatID, presentation.RollDetailsMsg(details))
}

func (b *Bot) handlePendingCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	filter, err := parseFilter(commandArgs(update.Message.Text))
	if err != nil {
		b.sendText(ctx, userID, presentation.UsageMsg("/pending priority=Urgente material=Vinilo variant=… type=Falla"))
		return
	}

	orders := b.boardService.Pending(filter)
	current, pages := page(orders, 0)

	b.router.Transition(userID, fsm.StepAwaitingPendingSliderAction, &fsm.PendingSliderData{Filter: filter})
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      userID,
		Text:        presentation.PendingPageMsg(current, len(orders), filter),
		ReplyMarkup: presentation.PendingSliderKbd(pages, 0),
	})
}

func (b *Bot) setupPendingSliderFlow() {
	fsm.Chain[*fsm.PendingSliderData](b.router, "pending_slider", fsm.StepAwaitingPendingSliderAction).
		OnCallback(func(ctx *fsm.ConversationContext[*fsm.PendingSliderData], data string) error {
			ctx.AnswerCallback()
			switch data {
			case "previous":
				if ctx.Data.CurrentPage > 0 {
					ctx.Data.CurrentPage--
				}
			case "next":
				ctx.Data.CurrentPage++
			case "refresh":
				if err := b.boardService.Reload(ctx.Ctx, "manual"); err != nil {
					return ctx.SendMessage(presentation.ErrorMsg(err), nil)
				}
			case "close":
				return ctx.Complete("")
			default:
				return nil
			}
			return b.updatePendingView(ctx)
		})
}

func (b *Bot) updatePendingView(ctx *fsm.ConversationContext[*fsm.PendingSliderData]) error {
	orders := b.boardService.Pending(ctx.Data.Filter)
	current, pages := page(orders, ctx.Data.CurrentPage)
	if current == nil && pages > 0 {
		ctx.Data.CurrentPage = pages - 1
		current, _ = page(orders, ctx.Data.CurrentPage)
	}
	if pages == 0 {
		ctx.Data.CurrentPage = 0
	}

	ctx.Transition(fsm.StepAwaitingPendingSliderAction, ctx.Data)
	b.EditMessageText(ctx.Ctx, &bot.EditMessageTextParams{
		ChatID:      ctx.UserID,
		MessageID:   ctx.Update.CallbackQuery.Message.Message.ID,
		Text:        presentation.PendingPageMsg(current, len(orders), ctx.Data.Filter),
		ReplyMarkup: presentation.PendingSliderKbd(pages, ctx.Data.CurrentPage),
	})
	return nil
}
