package geometry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// resolution markers live in the first chunks of PNG and JPEG files
const imageHeaderBytes = 64 * 1024

type ImageDimensions struct {
	PixelWidth   int
	PixelHeight  int
	DPIX         float64
	DPIY         float64
	WidthMeters  float64
	HeightMeters float64
}

// MeasureImage decodes the pixel size of an image and converts it to meters
// using the resolution stored in the file header, or defaultDPI when the
// header carries none or cannot be read.
func MeasureImage(r io.ReaderAt, size int64, format Format, defaultDPI float64) (*ImageDimensions, error) {
	cfg, _, err := image.DecodeConfig(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrUnreadableImage, cfg.Width, cfg.Height)
	}

	dpiX, dpiY := defaultDPI, defaultDPI
	header, err := readChunk(r, 0, min(size, imageHeaderBytes))
	if err == nil {
		if x, y, ok := ScanResolution(header, format); ok {
			dpiX, dpiY = x, y
		}
	}

	return &ImageDimensions{
		PixelWidth:   cfg.Width,
		PixelHeight:  cfg.Height,
		DPIX:         dpiX,
		DPIY:         dpiY,
		WidthMeters:  pixelsToMeters(cfg.Width, dpiX),
		HeightMeters: pixelsToMeters(cfg.Height, dpiY),
	}, nil
}

// ScanResolution looks for a physical resolution hint in an image header.
func ScanResolution(header []byte, format Format) (dpiX, dpiY float64, ok bool) {
	switch format {
	case FormatPNG:
		return scanPNGResolution(header)
	case FormatJPEG:
		return scanJPEGResolution(header)
	default:
		return 0, 0, false
	}
}

func scanPNGResolution(data []byte) (float64, float64, bool) {
	if !bytes.HasPrefix(data, magicPNG) {
		return 0, 0, false
	}

	pos := 8
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		chunkType := string(data[pos+4 : pos+8])

		switch chunkType {
		case "pHYs":
			body := data[pos+8:]
			if length < 9 || len(body) < 9 {
				return 0, 0, false
			}
			ppuX := binary.BigEndian.Uint32(body[0:4])
			ppuY := binary.BigEndian.Uint32(body[4:8])
			// unit 1 is meters, 0 only states the aspect ratio
			if body[8] != 1 || ppuX == 0 || ppuY == 0 {
				return 0, 0, false
			}
			return float64(ppuX) / inchesPerMeter, float64(ppuY) / inchesPerMeter, true
		case "IDAT", "IEND":
			return 0, 0, false
		}

		if length < 0 || length > len(data) {
			return 0, 0, false
		}
		pos += 12 + length
	}
	return 0, 0, false
}

func scanJPEGResolution(data []byte) (float64, float64, bool) {
	if !bytes.HasPrefix(data, magicJPEG) {
		return 0, 0, false
	}

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return 0, 0, false
		}
		marker := data[pos+1]
		switch {
		case marker == 0xFF:
			pos++
			continue
		case marker == 0x01, marker >= 0xD0 && marker <= 0xD8:
			pos += 2
			continue
		case marker == 0xDA, marker == 0xD9:
			return 0, 0, false
		}

		segLen := int(binary.BigEndian.Uint16(data[pos+2:]))
		if segLen < 2 {
			return 0, 0, false
		}
		end := min(pos+2+segLen, len(data))
		seg := data[pos+4 : end]

		if marker == 0xE0 && len(seg) >= 12 && bytes.Equal(seg[:5], []byte("JFIF\x00")) {
			unit := seg[7]
			x := float64(binary.BigEndian.Uint16(seg[8:10]))
			y := float64(binary.BigEndian.Uint16(seg[10:12]))
			if x == 0 || y == 0 {
				return 0, 0, false
			}
			switch unit {
			case 1:
				return x, y, true
			case 2:
				return x * centimetersPerIn, y * centimetersPerIn, true
			default:
				return 0, 0, false
			}
		}
		pos += 2 + segLen
	}
	return 0, 0, false
}

func readChunk(r io.ReaderAt, off, n int64) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}
