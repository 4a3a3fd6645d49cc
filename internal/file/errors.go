package file

import (
	"errors"
	"fmt"
)

var (
	ErrNoTgFileID   = errors.New("file does not have telegram file_id")
	ErrFileTooLarge = errors.New("file is larger than the bot api allows")
	ErrBadFileName  = errors.New("file name escapes the staging folder")
)

type ErrDownloadFailed struct {
	Err error
}

func (e *ErrDownloadFailed) Error() string {
	return fmt.Sprintf("failed to download file: %s", e.Err)
}

func (e *ErrDownloadFailed) Unwrap() error {
	return e.Err
}

type ErrPrepareFilepath struct {
	Err error
}

func (e *ErrPrepareFilepath) Error() string {
	return fmt.Sprintf("failed to prepare file path: %s", e.Err)
}

func (e *ErrPrepareFilepath) Unwrap() error {
	return e.Err
}
