package telegram

import (
	"context"
	"log/slog"
	"os"

	"print-roll-console/internal/file"
	"print-roll-console/internal/geometry"
	"print-roll-console/internal/pkg/model"
	"print-roll-console/internal/telegram/internal/media"
	"print-roll-console/internal/telegram/internal/presentation"
	"print-roll-console/internal/upload"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleAttachments(ctx context.Context, api *bot.Bot, update *models.Update) {
	b.collector.ProcessMessage(update.Message, func(userID int64, window *media.Window) {
		b.processBatch(ctx, window.ChatID, userID, window.Files, window.Caption)
	})
}

type stagedMeasurement struct {
	staged *file.StagedFile
	meta   model.UploadedFileMeta
}

// processBatch downloads a burst of files, measures them and, when the
// caption asks for it, uploads them. Staged copies are removed afterwards.
func (b *Bot) processBatch(ctx context.Context, chatID, userID int64, files []file.RequestFile, caption string) {
	folder := stagingFolder(userID)
	if err := b.fileService.CreateFolder(folder); err != nil {
		slog.Error("Failed to create staging folder", "error", err, "folder", folder)
		b.sendText(ctx, chatID, presentation.GenericErrorMsg())
		return
	}
	defer func() {
		if err := b.fileService.DeleteFolder(folder); err != nil {
			slog.Error("Failed to delete staging folder", "error", err, "folder", folder)
		}
	}()

	b.sendText(ctx, chatID, presentation.StartingDownloadMsg(len(files)))

	var staged []*file.StagedFile
	for res := range b.fileService.DownloadAndSave(ctx, folder, files, b.downloader) {
		if res.Err != nil {
			slog.Error("Failed to download file", "error", res.Err, "file", res.Result.Name)
			b.sendText(ctx, chatID, presentation.DownloadErrorMsg(res.Result.Name, res.Err))
			continue
		}
		staged = append(staged, res.Result)
	}

	measured := b.measureStaged(ctx, chatID, staged)

	target, ok := parseUploadCaption(caption)
	if !ok {
		return
	}
	for _, m := range measured {
		b.uploadStaged(ctx, chatID, m, target)
	}
}

func (b *Bot) measureStaged(ctx context.Context, chatID int64, staged []*file.StagedFile) []stagedMeasurement {
	var (
		reqs   []geometry.MeasureRequest
		opened = make(map[string]*file.StagedFile)
	)
	for _, s := range staged {
		f, err := os.Open(s.Path)
		if err != nil {
			slog.Error("Failed to open staged file", "error", err, "path", s.Path)
			continue
		}
		// kept open until the whole batch is measured
		defer f.Close()
		opened[s.Path] = s
		reqs = append(reqs, geometry.MeasureRequest{
			ID:           s.Path,
			Name:         s.Name,
			DeclaredMime: s.MimeType,
			Body:         f,
			Size:         s.Size,
		})
	}

	var measured []stagedMeasurement
	for res := range b.geometryService.MeasureBatch(ctx, reqs) {
		b.sendText(ctx, chatID, presentation.MeasureResultMsg(res.Meta))
		measured = append(measured, stagedMeasurement{staged: opened[res.ID], meta: res.Meta})
	}
	return measured
}

func (b *Bot) uploadStaged(ctx context.Context, chatID int64, m stagedMeasurement, target uploadCaption) {
	f, err := os.Open(m.staged.Path)
	if err != nil {
		slog.Error("Failed to reopen staged file", "error", err, "path", m.staged.Path)
		b.sendText(ctx, chatID, presentation.GenericErrorMsg())
		return
	}
	defer f.Close()

	_, err = b.uploadService.Upload(ctx, upload.Request{
		DBID: target.DBID,
		Type: target.Type,
		Area: target.Area,
		Meta: m.meta,
		Body: f,
	})
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	b.sendText(ctx, chatID, presentation.UploadDoneMsg(upload.FinalName(m.meta)))
}
