package telegram

import (
	"context"
	"log/slog"

	"print-roll-console/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const moveUsage = "/move <pedido> <rollo|pending> [posición]"

func (b *Bot) handleMoveCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)
	cmd, err := parseMoveArgs(args, b.boardService.Snapshot())
	if err != nil {
		if len(args) < 2 {
			b.sendText(ctx, chatID, presentation.UsageMsg(moveUsage))
			return
		}
		b.sendError(ctx, chatID, err)
		return
	}

	if err := b.boardService.Move(ctx, cmd); err != nil {
		slog.Warn("Move refused", "error", err, "orderID", cmd.OrderID, "dest", cmd.Dest.String())
		b.sendError(ctx, chatID, err)
		return
	}
	b.sendText(ctx, chatID, presentation.MoveDoneMsg(cmd.OrderID, cmd.Dest))
}

func (b *Bot) handleUnassignCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)
	if len(args) < 2 {
		b.sendText(ctx, chatID, presentation.UsageMsg("/unassign <rollo> <pedido…>"))
		return
	}
	rollID, err := parseID(args[0])
	if err != nil {
		b.sendText(ctx, chatID, presentation.UsageMsg("/unassign <rollo> <pedido…>"))
		return
	}
	orderIDs, err := parseIDs(args[1:])
	if err != nil {
		b.sendText(ctx, chatID, presentation.UsageMsg("/unassign <rollo> <pedido…>"))
		return
	}

	done, err := b.boardService.UnassignOrders(ctx, rollID, orderIDs)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	b.sendText(ctx, chatID, presentation.UnassignDoneMsg(done, rollID))
}
