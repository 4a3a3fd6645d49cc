package telegram

import (
	"context"

	"print-roll-console/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleHelpCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	b.sendText(ctx, update.Message.Chat.ID, presentation.HelpMsg())
}
