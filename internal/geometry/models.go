package geometry

import (
	"io"

	"print-roll-console/internal/pkg/model"
)

type MeasureRequest struct {
	// ID lets callers drop results for files removed while measuring.
	ID           string
	Name         string
	DeclaredMime string
	Body         io.ReaderAt
	Size         int64
}

type MeasureResult struct {
	ID    string
	Meta  model.UploadedFileMeta
	Index int
	Total int
}
