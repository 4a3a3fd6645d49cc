package geometry

import (
	"errors"
	"fmt"
)

var (
	ErrUnreadableImage   = errors.New("image dimensions could not be decoded")
	ErrNoMediaBoxFound   = errors.New("no usable MediaBox or CropBox found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCalculateChecksum = errors.New("failed to calculate checksum")
)

// ErrWidthExceeded is the hard-stop validation failure for files wider than
// the printable width of the selected material.
type ErrWidthExceeded struct {
	Name      string
	Width     float64
	MaxWidth  float64
	Rotatable bool
}

func (e *ErrWidthExceeded) Error() string {
	msg := fmt.Sprintf("%s is %.3fm wide, the maximum printable width is %.3fm", e.Name, e.Width, e.MaxWidth)
	if e.Rotatable {
		msg += " (it fits if rotated 90°)"
	}
	return msg
}

type ErrNotMeasured struct {
	Name   string
	Reason string
}

func (e *ErrNotMeasured) Error() string {
	return fmt.Sprintf("%s has no measured dimensions: %s", e.Name, e.Reason)
}

type ErrPDFParse struct {
	Err error
}

func (e *ErrPDFParse) Error() string {
	return fmt.Errorf("failed to parse pdf structure: %w", e.Err).Error()
}

func (e *ErrPDFParse) Unwrap() error {
	return e.Err
}
