package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"print-roll-console/internal/api"
	"print-roll-console/internal/area"
	"print-roll-console/internal/geometry"
	"print-roll-console/internal/pkg/model"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

var ErrEmptyFileName = errors.New("file name must not be empty")

type Uploader interface {
	UploadStream(ctx context.Context, fileName string, body io.Reader, fields api.UploadFields) (*api.UploadResult, error)
}

type Request struct {
	DBID string
	Type string
	Area string
	Meta model.UploadedFileMeta
	Body io.Reader
}

type Service interface {
	Upload(ctx context.Context, req Request) (*api.UploadResult, error)
}

type DefaultService struct {
	uploader        Uploader
	areas           area.Service
	geometry        geometry.Service
	defaultMaxWidth float64
}

// NewDefaultService builds the uploader. defaultMaxWidth applies to areas
// that do not declare their own printable width; 0 disables it.
func NewDefaultService(uploader Uploader, areas area.Service, geometry geometry.Service, defaultMaxWidth float64) Service {
	return &DefaultService{
		uploader:        uploader,
		areas:           areas,
		geometry:        geometry,
		defaultMaxWidth: defaultMaxWidth,
	}
}

// Upload checks a measured file against the printable width of its area and
// then streams it to the server under its final name. Unmeasured files go
// through and are sized by hand later.
func (d *DefaultService) Upload(ctx context.Context, req Request) (*api.UploadResult, error) {
	if strings.TrimSpace(req.Meta.Name) == "" {
		return nil, ErrEmptyFileName
	}

	maxWidth := d.defaultMaxWidth
	if d.areas != nil && req.Area != "" {
		visibility, err := d.areas.Get(ctx, req.Area)
		if err != nil {
			return nil, err
		}
		if visibility.MaxWidthMeters != nil {
			maxWidth = *visibility.MaxWidthMeters
		}
	}
	if req.Meta.Measured() {
		if err := d.geometry.ValidateWidth(req.Meta, maxWidth); err != nil {
			return nil, err
		}
	}

	finalName := FinalName(req.Meta)
	result, err := d.uploader.UploadStream(ctx, req.Meta.Name, req.Body, api.UploadFields{
		DBID:      req.DBID,
		Type:      req.Type,
		FinalName: finalName,
		Area:      req.Area,
	})
	if err != nil {
		slog.Error("Failed to upload file", "error", err, "file", req.Meta.Name, "finalName", finalName)
		return nil, err
	}
	slog.Info("File uploaded", "file", req.Meta.Name, "path", result.Path)
	return result, nil
}

// FinalName is the name the file is stored under: the slugged base name,
// followed by the measured size in meters when there is one.
func FinalName(meta model.UploadedFileMeta) string {
	ext := strings.ToLower(filepath.Ext(meta.Name))
	base := slug.Make(strings.TrimSuffix(meta.Name, filepath.Ext(meta.Name)))
	if base == "" {
		base = "file"
	}
	if !meta.Measured() {
		return base + ext
	}
	return fmt.Sprintf("%s-%sx%sm%s", base, meters(*meta.WidthMeters), meters(*meta.HeightMeters), ext)
}

func meters(v float64) string {
	return decimal.NewFromFloat(v).Round(3).String()
}
