package geometry

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyFormat(t *testing.T) {
	pngHead := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	tests := []struct {
		name     string
		head     []byte
		declared string
		file     string
		want     Format
	}{
		{"png magic beats declared pdf", pngHead, "application/pdf", "x.pdf", FormatPNG},
		{"png magic beats declared jpeg", pngHead, "image/jpeg", "x.jpg", FormatPNG},
		{"png magic without declared type", pngHead, "", "", FormatPNG},
		{"jpeg magic", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "application/octet-stream", "photo", FormatJPEG},
		{"pdf magic", []byte("%PDF-1.7\n"), "image/png", "scan.png", FormatPDF},
		{"base64 pdf", []byte("JVBERi0xLjQK"), "", "", FormatPDF},
		{"pdf extension overrides declared type", []byte("garbage"), "application/octet-stream", "Plano.PDF", FormatPDF},
		{"pdf extension overrides wrong image type", []byte("garbage"), "image/png", "plano.pdf", FormatPDF},
		{"declared type as last resort", []byte("garbage"), "image/jpeg; charset=binary", "photo", FormatJPEG},
		{"webp magic", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "", "", FormatWebP},
		{"nothing matches", []byte("hello"), "text/plain", "notes.txt", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IdentifyFormat(tt.head, tt.declared, tt.file))
		})
	}
}

func TestScanPNGResolution(t *testing.T) {
	data := pngWithPHYs(t, 10, 10, 2835, 5670, 1)

	x, y, ok := ScanResolution(data, FormatPNG)
	require.True(t, ok)
	assert.InDelta(t, 72.0, x, 0.01)
	assert.InDelta(t, 144.0, y, 0.02)
}

func TestScanPNGResolutionIgnoresAspectOnlyUnit(t *testing.T) {
	data := pngWithPHYs(t, 10, 10, 2835, 2835, 0)

	_, _, ok := ScanResolution(data, FormatPNG)
	assert.False(t, ok)
}

func TestScanJPEGResolution(t *testing.T) {
	t.Run("dots per inch", func(t *testing.T) {
		x, y, ok := ScanResolution(jpegWithJFIF(t, 8, 8, 1, 150, 200), FormatJPEG)
		require.True(t, ok)
		assert.Equal(t, 150.0, x)
		assert.Equal(t, 200.0, y)
	})
	t.Run("dots per centimeter", func(t *testing.T) {
		x, y, ok := ScanResolution(jpegWithJFIF(t, 8, 8, 2, 100, 100), FormatJPEG)
		require.True(t, ok)
		assert.InDelta(t, 254.0, x, 1e-9)
		assert.InDelta(t, 254.0, y, 1e-9)
	})
	t.Run("no unit", func(t *testing.T) {
		_, _, ok := ScanResolution(jpegWithJFIF(t, 8, 8, 0, 1, 1), FormatJPEG)
		assert.False(t, ok)
	})
	t.Run("no JFIF segment", func(t *testing.T) {
		_, _, ok := ScanResolution(encodeJPEG(t, 8, 8), FormatJPEG)
		assert.False(t, ok)
	})
}

func TestMeasureImage(t *testing.T) {
	t.Run("png with pHYs", func(t *testing.T) {
		data := pngWithPHYs(t, 720, 360, 2835, 2835, 1)
		dims, err := MeasureImage(bytes.NewReader(data), int64(len(data)), FormatPNG, 300)
		require.NoError(t, err)
		assert.Equal(t, 720, dims.PixelWidth)
		assert.Equal(t, 0.254, dims.WidthMeters)
		assert.Equal(t, 0.127, dims.HeightMeters)
	})
	t.Run("png falls back to default dpi", func(t *testing.T) {
		data := encodePNG(t, 300, 600)
		dims, err := MeasureImage(bytes.NewReader(data), int64(len(data)), FormatPNG, 300)
		require.NoError(t, err)
		assert.Equal(t, 300.0, dims.DPIX)
		assert.Equal(t, 0.025, dims.WidthMeters)
		assert.Equal(t, 0.051, dims.HeightMeters)
	})
	t.Run("jpeg with dots per centimeter", func(t *testing.T) {
		data := jpegWithJFIF(t, 254, 508, 2, 100, 100)
		dims, err := MeasureImage(bytes.NewReader(data), int64(len(data)), FormatJPEG, 300)
		require.NoError(t, err)
		assert.Equal(t, 0.025, dims.WidthMeters)
		assert.Equal(t, 0.051, dims.HeightMeters)
	})
	t.Run("undecodable", func(t *testing.T) {
		data := []byte{0x89, 0x50, 0x4E, 0x47, 0x00}
		_, err := MeasureImage(bytes.NewReader(data), int64(len(data)), FormatPNG, 300)
		assert.True(t, errors.Is(err, ErrUnreadableImage))
	})
}

func TestFindPageBoxPrefersMediaBox(t *testing.T) {
	box, ok := FindPageBox([]byte("<< /CropBox [0 0 100 100] /MediaBox [0 0 200 300] >>"))
	require.True(t, ok)
	assert.Equal(t, MediaBox, box.Kind)
	assert.Equal(t, 200.0, box.Width)
	assert.Equal(t, 300.0, box.Height)
	assert.False(t, box.Rotated)
}

func TestFindPageBoxLargestMediaBox(t *testing.T) {
	text := "/MediaBox [0 0 100 100]\n/MediaBox\r\n[ -10.5 0\n 1190.5 841.89 ]\n/MediaBox [0 0 50 50]"
	box, ok := FindPageBox([]byte(text))
	require.True(t, ok)
	assert.InDelta(t, 1201.0, box.Width, 1e-9)
	assert.InDelta(t, 841.89, box.Height, 1e-9)
}

func TestFindPageBoxSkipsDegenerateBoxes(t *testing.T) {
	box, ok := FindPageBox([]byte("/MediaBox [0 0 0.5 100] /CropBox [10 10 60 70]"))
	require.True(t, ok)
	assert.Equal(t, CropBox, box.Kind)
	assert.Equal(t, 50.0, box.Width)
	assert.Equal(t, 60.0, box.Height)

	_, ok = FindPageBox([]byte("/MediaBox [0 0 0 0] /Type /Page"))
	assert.False(t, ok)
}

func TestMeasurePDFHeadChunk(t *testing.T) {
	data := pdfText("1 0 obj << /Type /Page /CropBox [0 0 100 100] /MediaBox [0 0 200 300] >> endobj")
	dims, err := MeasurePDF(bytes.NewReader(data), int64(len(data)), testPDFOptions())
	require.NoError(t, err)
	assert.Equal(t, "head", dims.Source)
	assert.Equal(t, 0.071, dims.WidthMeters)
	assert.Equal(t, 0.106, dims.HeightMeters)
}

func TestMeasurePDFRotationSwaps(t *testing.T) {
	plain := pdfText("<< /Type /Page /MediaBox [0 0 200 300] >>")
	rotated := pdfText("<< /Type /Page /MediaBox [0 0 200 300] /Rotate 90 >>")

	a, err := MeasurePDF(bytes.NewReader(plain), int64(len(plain)), testPDFOptions())
	require.NoError(t, err)
	b, err := MeasurePDF(bytes.NewReader(rotated), int64(len(rotated)), testPDFOptions())
	require.NoError(t, err)

	assert.Equal(t, a.WidthMeters, b.HeightMeters)
	assert.Equal(t, a.HeightMeters, b.WidthMeters)

	for _, deg := range []string{"270", "-90", "450"} {
		data := pdfText("/MediaBox [0 0 200 300] /Rotate " + deg)
		dims, err := MeasurePDF(bytes.NewReader(data), int64(len(data)), testPDFOptions())
		require.NoError(t, err)
		assert.Equal(t, a.HeightMeters, dims.WidthMeters, "rotate %s", deg)
	}
}

func TestMeasurePDFTailChunk(t *testing.T) {
	data := pdfText(strings.Repeat("x", 300), "/MediaBox [0 0 144 72]")
	opts := PDFOptions{HeadBytes: 16, TailBytes: 64, TailThreshold: 32}

	dims, err := MeasurePDF(bytes.NewReader(data), int64(len(data)), opts)
	require.NoError(t, err)
	assert.Equal(t, "tail", dims.Source)
	assert.Equal(t, 0.051, dims.WidthMeters)
	assert.Equal(t, 0.025, dims.HeightMeters)
}

func TestMeasurePDFTailMediaBoxBeatsHeadCropBox(t *testing.T) {
	data := pdfText("/CropBox [0 0 100 100]", strings.Repeat("x", 300), "/MediaBox [0 0 200 300]")
	opts := PDFOptions{HeadBytes: 40, TailBytes: 40, TailThreshold: 64}

	dims, err := MeasurePDF(bytes.NewReader(data), int64(len(data)), opts)
	require.NoError(t, err)
	assert.Equal(t, "tail", dims.Source)
	assert.Equal(t, MediaBox, dims.Box.Kind)
	assert.Equal(t, 0.071, dims.WidthMeters)
	assert.Equal(t, 0.106, dims.HeightMeters)
}

func TestMeasurePDFHeadMediaBoxBeatsTailCropBox(t *testing.T) {
	data := pdfText("/MediaBox [0 0 200 300]", strings.Repeat("x", 300), "/CropBox [0 0 500 500]")
	opts := PDFOptions{HeadBytes: 40, TailBytes: 40, TailThreshold: 64}

	dims, err := MeasurePDF(bytes.NewReader(data), int64(len(data)), opts)
	require.NoError(t, err)
	assert.Equal(t, "head", dims.Source)
	assert.Equal(t, MediaBox, dims.Box.Kind)
}

func TestMeasurePDFStructureFallback(t *testing.T) {
	data := buildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox 4 0 R >>",
		"<< /Type /Page /Parent 2 0 R /Rotate 90 >>",
		"[0 0 595 842]",
	)

	dims, err := MeasurePDF(bytes.NewReader(data), int64(len(data)), testPDFOptions())
	require.NoError(t, err)
	assert.Equal(t, "structure", dims.Source)
	assert.Equal(t, 0.297, dims.WidthMeters)
	assert.Equal(t, 0.21, dims.HeightMeters)
	require.NotNil(t, dims.PageCount)
	assert.Equal(t, 1, *dims.PageCount)
}

func TestMeasurePDFNeverGuesses(t *testing.T) {
	data := pdfText("stream of compressed bytes without any boxes")
	dims, err := MeasurePDF(bytes.NewReader(data), int64(len(data)), testPDFOptions())
	assert.Nil(t, dims)
	assert.True(t, errors.Is(err, ErrNoMediaBoxFound))
}

func testPDFOptions() PDFOptions {
	return PDFOptions{HeadBytes: 500 * 1024, TailBytes: 3 * 1024 * 1024, TailThreshold: 1024 * 1024}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk gone")
}

func TestCalculateChecksum(t *testing.T) {
	sum, err := calculateChecksum(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	_, err = calculateChecksum(failingReader{})
	assert.ErrorIs(t, err, ErrCalculateChecksum)
}
