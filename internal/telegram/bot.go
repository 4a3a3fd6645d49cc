package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"print-roll-console/internal/board"
	"print-roll-console/internal/file"
	"print-roll-console/internal/geometry"
	"print-roll-console/internal/pkg/config"
	"print-roll-console/internal/telegram/internal/fsm"
	"print-roll-console/internal/telegram/internal/media"
	"print-roll-console/internal/telegram/internal/presentation"
	"print-roll-console/internal/upload"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const collectDelay = 2 * time.Second

type Bot struct {
	boardService    board.Service
	geometryService geometry.Service
	uploadService   upload.Service
	fileService     file.Service
	api             *bot.Bot
	downloader      file.Downloader
	router          *fsm.Router
	collector       *media.Collector
}

func NewBot(
	boardService board.Service,
	geometryService geometry.Service,
	uploadService upload.Service,
	fileService file.Service,
	httpClient *http.Client,
	cfg *config.TelegramCfg,
) (*Bot, error) {
	state := fsm.NewFSM()
	router := fsm.NewRouter(state, cfg.Operators)
	botOpts := []bot.Option{
		bot.WithMiddlewares(router.Middleware),
		bot.WithDefaultHandler(func(ctx context.Context, api *bot.Bot, update *models.Update) {}),
	}
	b, err := bot.New(cfg.Token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot instance: %w", err)
	}

	return &Bot{
		boardService:    boardService,
		geometryService: geometryService,
		uploadService:   uploadService,
		fileService:     fileService,
		api:             b,
		downloader:      file.NewTelegramDownloader(b, httpClient),
		router:          router,
		collector:       media.NewCollector(collectDelay),
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommandStartOnly, b.handleHelpCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "help", bot.MatchTypeCommandStartOnly, b.handleHelpCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "board", bot.MatchTypeCommandStartOnly, b.handleBoardCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "pending", bot.MatchTypeCommandStartOnly, b.handlePendingCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "roll", bot.MatchTypeCommandStartOnly, b.handleRollCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "reload", bot.MatchTypeCommandStartOnly, b.handleReloadCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "move", bot.MatchTypeCommandStartOnly, b.handleMoveCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "unassign", bot.MatchTypeCommandStartOnly, b.handleUnassignCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "newroll", bot.MatchTypeCommandStartOnly, b.handleNewRollCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "rename", bot.MatchTypeCommandStartOnly, b.handleRenameCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "dismantle", bot.MatchTypeCommandStartOnly, b.handleDismantleCmd)

	b.router.SetAttachmentHandler(b.handleAttachments)
	b.setupPendingSliderFlow()
	b.setupRollCreationFlow()
	b.setupRollEditFlows()

	slog.Info("Started Telegram Bot")
	go b.api.Start(ctx)
}

func (b *Bot) SendMessage(ctx context.Context, params *bot.SendMessageParams) int {
	if params.ParseMode == "" {
		params.ParseMode = models.ParseModeHTML
	}
	msg, err := b.api.SendMessage(ctx, params)
	if err != nil {
		slog.Error("Error sending message", "error", err, "chatID", params.ChatID)
		return 0
	}
	return msg.ID
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

func (b *Bot) EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) {
	if params.ParseMode == "" {
		params.ParseMode = models.ParseModeHTML
	}
	if _, err := b.api.EditMessageText(ctx, params); err != nil {
		slog.Error("Error editing message", "error", err, "chatID", params.ChatID)
	}
}

func (b *Bot) sendError(ctx context.Context, chatID int64, err error) {
	b.sendText(ctx, chatID, presentation.ErrorMsg(err))
}
