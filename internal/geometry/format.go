package geometry

import (
	"bytes"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatPNG     Format = "image/png"
	FormatJPEG    Format = "image/jpeg"
	FormatPDF     Format = "application/pdf"
	FormatGIF     Format = "image/gif"
	FormatBMP     Format = "image/bmp"
	FormatTIFF    Format = "image/tiff"
	FormatWebP    Format = "image/webp"
	FormatUnknown Format = ""
)

func (f Format) IsImage() bool {
	return strings.HasPrefix(string(f), "image/")
}

var (
	magicPNG       = []byte{0x89, 0x50, 0x4E, 0x47}
	magicJPEG      = []byte{0xFF, 0xD8}
	magicPDF       = []byte("%PDF")
	magicPDFBase64 = []byte("JVBERi")
	magicGIF       = []byte("GIF8")
	magicBMP       = []byte("BM")
	magicTIFFLE    = []byte{'I', 'I', 0x2A, 0x00}
	magicTIFFBE    = []byte{'M', 'M', 0x00, 0x2A}
)

var declaredFormats = map[string]Format{
	"image/png":         FormatPNG,
	"image/jpeg":        FormatJPEG,
	"image/jpg":         FormatJPEG,
	"image/pjpeg":       FormatJPEG,
	"application/pdf":   FormatPDF,
	"application/x-pdf": FormatPDF,
	"image/gif":         FormatGIF,
	"image/bmp":         FormatBMP,
	"image/tiff":        FormatTIFF,
	"image/webp":        FormatWebP,
}

// IdentifyFormat sniffs the leading bytes of a file. A conclusive magic
// number always wins; otherwise a .pdf extension forces PDF handling, and
// only then is the declared MIME type consulted.
func IdentifyFormat(head []byte, declaredMime, fileName string) Format {
	if f := DetectMimeFromMagicBytes(head); f != FormatUnknown {
		return f
	}
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return FormatPDF
	}
	mime := strings.ToLower(strings.TrimSpace(declaredMime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return declaredFormats[mime]
}

func DetectMimeFromMagicBytes(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, magicPNG):
		return FormatPNG
	case bytes.HasPrefix(head, magicJPEG):
		return FormatJPEG
	case bytes.HasPrefix(head, magicPDF), bytes.HasPrefix(head, magicPDFBase64):
		return FormatPDF
	case bytes.HasPrefix(head, magicGIF):
		return FormatGIF
	case bytes.HasPrefix(head, magicTIFFLE), bytes.HasPrefix(head, magicTIFFBE):
		return FormatTIFF
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		return FormatWebP
	case bytes.HasPrefix(head, magicBMP):
		return FormatBMP
	}

	// some exporters prepend junk before the PDF header
	if i := bytes.Index(head, magicPDF); i > 0 && i < 1024 {
		return FormatPDF
	}
	return FormatUnknown
}
