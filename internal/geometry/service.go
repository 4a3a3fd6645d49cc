package geometry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"print-roll-console/internal/pkg/config"
	"print-roll-console/internal/pkg/metrics"
	"print-roll-console/internal/pkg/model"

	"go.uber.org/atomic"
)

const sniffBytes = 4096

type Service interface {
	Measure(ctx context.Context, req MeasureRequest) model.UploadedFileMeta
	MeasureBatch(ctx context.Context, reqs []MeasureRequest) chan MeasureResult
	ValidateWidth(meta model.UploadedFileMeta, maxWidth float64) error
	Wait()
}

type DefaultService struct {
	cfg  *config.GeometryCfg
	repo Repo
	wg   sync.WaitGroup
}

// NewDefaultService builds the extractor. repo may be nil, in which case
// nothing is cached.
func NewDefaultService(cfg *config.GeometryCfg, repo Repo) Service {
	return &DefaultService{
		cfg:  cfg,
		repo: repo,
	}
}

// Measure never fails: problems with the file end up in the returned
// metadata as a measurement error so the file can still be accepted for
// manual sizing.
func (d *DefaultService) Measure(ctx context.Context, req MeasureRequest) model.UploadedFileMeta {
	start := time.Now()
	meta := model.UploadedFileMeta{
		Name:     req.Name,
		Size:     req.Size,
		MimeType: req.DeclaredMime,
	}

	head, _ := readChunk(req.Body, 0, min(req.Size, sniffBytes))
	format := IdentifyFormat(head, req.DeclaredMime, req.Name)
	if format != FormatUnknown {
		meta.MimeType = string(format)
	}

	checksum, err := calculateChecksum(io.NewSectionReader(req.Body, 0, req.Size))
	if err != nil {
		slog.Warn("Failed to checksum file", "error", err, "file", req.Name)
	} else {
		meta.Checksum = checksum
		if cached := d.lookup(ctx, checksum); cached != nil {
			applyCached(&meta, cached)
			metrics.FilesMeasured.WithLabelValues(string(format), "cached").Inc()
			return meta
		}
	}

	switch {
	case format == FormatPDF:
		dims, err := MeasurePDF(req.Body, req.Size, PDFOptions{
			HeadBytes:     d.cfg.HeadChunkBytes,
			TailBytes:     d.cfg.TailChunkBytes,
			TailThreshold: d.cfg.TailThreshold,
		})
		if err != nil {
			setFailure(&meta, model.ErrKindNoMediaBoxFound, err)
			break
		}
		meta.WidthMeters = ptr(dims.WidthMeters)
		meta.HeightMeters = ptr(dims.HeightMeters)
		meta.PageCount = dims.PageCount
		meta.Unit = model.UnitMeters

	case format.IsImage():
		dims, err := MeasureImage(req.Body, req.Size, format, d.cfg.DefaultDPI)
		if err != nil {
			setFailure(&meta, model.ErrKindUnreadableImage, err)
			break
		}
		meta.WidthMeters = ptr(dims.WidthMeters)
		meta.HeightMeters = ptr(dims.HeightMeters)
		meta.DPIX = ptr(dims.DPIX)
		meta.DPIY = ptr(dims.DPIY)
		meta.Unit = model.UnitMeters

	default:
		setFailure(&meta, model.ErrKindUnsupportedFormat, ErrUnsupportedFormat)
	}

	status := "measured"
	if !meta.Measured() {
		status = "failed"
		slog.Info("File could not be measured", "file", req.Name, "reason", *meta.MeasurementError)
	} else {
		d.store(ctx, meta)
	}
	metrics.FilesMeasured.WithLabelValues(string(format), status).Inc()
	metrics.MeasureDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	return meta
}

// MeasureBatch measures files concurrently and streams the results in
// completion order. The channel is closed once every file is done.
func (d *DefaultService) MeasureBatch(ctx context.Context, reqs []MeasureRequest) chan MeasureResult {
	wg := sync.WaitGroup{}
	counter := atomic.NewInt32(0)
	result := make(chan MeasureResult)
	sem := make(chan struct{}, d.cfg.Concurrency)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, req := range reqs {
			sem <- struct{}{}
			wg.Add(1)
			go func(r MeasureRequest) {
				defer func() {
					<-sem
					wg.Done()
				}()
				meta := d.Measure(ctx, r)
				select {
				case result <- MeasureResult{
					ID:    r.ID,
					Meta:  meta,
					Index: int(counter.Inc()),
					Total: len(reqs),
				}:
				case <-ctx.Done():
				}
			}(req)
		}
		wg.Wait()
		close(result)
	}()

	return result
}

// ValidateWidth is the hard-stop business rule layered on top of geometry.
// maxWidth <= 0 disables the check.
func (d *DefaultService) ValidateWidth(meta model.UploadedFileMeta, maxWidth float64) error {
	if maxWidth <= 0 {
		return nil
	}
	if !meta.Measured() {
		reason := "unknown"
		if meta.MeasurementError != nil {
			reason = *meta.MeasurementError
		}
		return &ErrNotMeasured{Name: meta.Name, Reason: reason}
	}
	if *meta.WidthMeters <= maxWidth {
		return nil
	}
	return &ErrWidthExceeded{
		Name:      meta.Name,
		Width:     *meta.WidthMeters,
		MaxWidth:  maxWidth,
		Rotatable: *meta.HeightMeters <= maxWidth,
	}
}

// Wait blocks until every running batch has been drained.
func (d *DefaultService) Wait() {
	d.wg.Wait()
}

func (d *DefaultService) lookup(ctx context.Context, checksum string) *DBMeasurement {
	if d.repo == nil {
		return nil
	}
	cached, err := d.repo.GetMeasurement(ctx, checksum)
	if err != nil {
		slog.Error("Failed to read measurement cache", "error", err, "checksum", checksum)
		return nil
	}
	return cached
}

func (d *DefaultService) store(ctx context.Context, meta model.UploadedFileMeta) {
	if d.repo == nil || meta.Checksum == "" {
		return
	}
	err := d.repo.SaveMeasurement(ctx, DBMeasurement{
		Checksum:     meta.Checksum,
		MimeType:     meta.MimeType,
		WidthMeters:  *meta.WidthMeters,
		HeightMeters: *meta.HeightMeters,
		DPIX:         meta.DPIX,
		DPIY:         meta.DPIY,
		PageCount:    meta.PageCount,
	})
	if err != nil {
		slog.Error("Failed to store measurement", "error", err, "file", meta.Name)
	}
}

func applyCached(meta *model.UploadedFileMeta, cached *DBMeasurement) {
	meta.MimeType = cached.MimeType
	meta.WidthMeters = ptr(cached.WidthMeters)
	meta.HeightMeters = ptr(cached.HeightMeters)
	meta.DPIX = cached.DPIX
	meta.DPIY = cached.DPIY
	meta.PageCount = cached.PageCount
	meta.Unit = model.UnitMeters
}

func setFailure(meta *model.UploadedFileMeta, kind model.MeasurementErrorKind, err error) {
	meta.WidthMeters = nil
	meta.HeightMeters = nil
	meta.DPIX = nil
	meta.DPIY = nil
	meta.Unit = ""
	meta.ErrorKind = kind
	meta.MeasurementError = ptr(err.Error())
}
