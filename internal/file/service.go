package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"print-roll-console/internal/pkg/config"

	"go.uber.org/atomic"
)

// Service stages files sent to the bot on local disk so they can be
// measured with random access.
type Service interface {
	CreateFolder(folderPath string) error
	DownloadAndSave(ctx context.Context, folderPath string, files []RequestFile, downloader Downloader) chan DownloadResult
	DeleteFolder(folderPath string) error
	Wait()
}

type DefaultService struct {
	dirPath     string
	concurrency int
	wg          sync.WaitGroup
}

func NewDefaultService(cfg *config.TelegramCfg, geometryCfg *config.GeometryCfg) Service {
	concurrency := geometryCfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &DefaultService{
		dirPath:     cfg.DirPath,
		concurrency: concurrency,
	}
}

func (d *DefaultService) CreateFolder(folderPath string) error {
	path := filepath.Join(d.dirPath, folderPath)
	return os.MkdirAll(path, os.ModePerm)
}

func (d *DefaultService) DownloadAndSave(ctx context.Context, folderPath string, files []RequestFile, downloader Downloader) chan DownloadResult {
	wg := sync.WaitGroup{}
	counter := atomic.NewInt32(0)
	result := make(chan DownloadResult)
	sem := make(chan struct{}, d.concurrency)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for i, file := range files {
			sem <- struct{}{}
			wg.Add(1)
			go func(pos int, f RequestFile) {
				defer func() {
					<-sem
					wg.Done()
				}()
				res := d.processFile(ctx, folderPath, pos, f, downloader)
				res.Index = int(counter.Inc())
				res.Total = len(files)
				select {
				case result <- res:
				case <-ctx.Done():
				}
			}(i, file)
		}
		wg.Wait()
		close(result)
	}()

	return result
}

func (d *DefaultService) processFile(ctx context.Context, folderPath string, pos int, file RequestFile, downloader Downloader) DownloadResult {
	staged := &StagedFile{Name: file.Name, MimeType: file.MimeType}

	if file.Size > MaxBotAPIFileSize {
		return DownloadResult{Result: staged, Err: &ErrDownloadFailed{Err: ErrFileTooLarge}}
	}

	path, err := d.stagingPath(folderPath, pos, file.Name)
	if err != nil {
		return DownloadResult{Result: staged, Err: &ErrPrepareFilepath{Err: err}}
	}
	dst, err := prepareFilepath(path)
	if err != nil {
		return DownloadResult{Result: staged, Err: &ErrPrepareFilepath{Err: err}}
	}

	err = downloader.DownloadFile(ctx, file.TGFileID, dst)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return DownloadResult{Result: staged, Err: &ErrDownloadFailed{Err: err}}
	}

	info, err := os.Stat(path)
	if err != nil {
		return DownloadResult{Result: staged, Err: &ErrDownloadFailed{Err: err}}
	}
	staged.Path = path
	staged.Size = info.Size()
	return DownloadResult{Result: staged}
}

// stagingPath prefixes the file name with its position in the batch, so two
// files sent with the same name never share a path.
func (d *DefaultService) stagingPath(folderPath string, pos int, name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base != name {
		return "", ErrBadFileName
	}
	return filepath.Join(d.dirPath, folderPath, fmt.Sprintf("%03d-%s", pos+1, base)), nil
}

func (d *DefaultService) DeleteFolder(folderPath string) error {
	folderPath = filepath.Join(d.dirPath, folderPath)
	return os.RemoveAll(folderPath)
}

func (d *DefaultService) Wait() {
	d.wg.Wait()
}
