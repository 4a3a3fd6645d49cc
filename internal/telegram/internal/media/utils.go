package media

import (
	"fmt"
	"strings"
	"time"

	"print-roll-console/internal/file"

	"github.com/go-telegram/bot/models"
)

func HasFiles(message *models.Message) bool {
	return message.Document != nil || len(message.Photo) > 0
}

// ExtractFiles lists the printable attachments of a message. Photos keep
// only their largest size.
func ExtractFiles(message *models.Message) []file.RequestFile {
	var result []file.RequestFile
	dateStr := time.Now().Format("2006-01-02")

	if len(message.Photo) > 0 {
		largest := message.Photo[len(message.Photo)-1]
		result = append(result, file.RequestFile{
			Name:     fmt.Sprintf("photo_%s_%d.jpg", dateStr, message.ID),
			Size:     int64(largest.FileSize),
			MimeType: "image/jpeg",
			TGFileID: largest.FileID,
		})
	}

	if message.Document != nil {
		fileName := strings.TrimSpace(message.Document.FileName)
		if fileName == "" {
			ext := getExtFromMIME(message.Document.MimeType)
			fileName = fmt.Sprintf("document_%s_%d%s", dateStr, message.ID, ext)
		}
		result = append(result, file.RequestFile{
			Name:     fileName,
			Size:     message.Document.FileSize,
			MimeType: message.Document.MimeType,
			TGFileID: message.Document.FileID,
		})
	}

	return result
}

func getExtFromMIME(mimeType string) string {
	mimeMap := map[string]string{
		"application/pdf": ".pdf",
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"image/gif":       ".gif",
		"image/webp":      ".webp",
		"image/bmp":       ".bmp",
		"image/tiff":      ".tiff",
	}

	if ext, ok := mimeMap[mimeType]; ok {
		return ext
	}

	parts := strings.Split(mimeType, "/")
	if len(parts) == 2 && parts[1] != "" {
		return "." + parts[1]
	}

	return ".bin"
}
