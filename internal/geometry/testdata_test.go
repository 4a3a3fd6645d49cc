package geometry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// pngWithPHYs inserts a pHYs chunk right after IHDR.
func pngWithPHYs(t *testing.T, w, h int, ppuX, ppuY uint32, unit byte) []byte {
	t.Helper()
	data := encodePNG(t, w, h)

	body := make([]byte, 9)
	binary.BigEndian.PutUint32(body[0:], ppuX)
	binary.BigEndian.PutUint32(body[4:], ppuY)
	body[8] = unit

	chunk := make([]byte, 0, 21)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(body)))
	chunk = append(chunk, "pHYs"...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(append([]byte("pHYs"), body...)))

	// signature (8) + IHDR chunk (4+4+13+4)
	const afterIHDR = 33
	out := append([]byte{}, data[:afterIHDR]...)
	out = append(out, chunk...)
	return append(out, data[afterIHDR:]...)
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// jpegWithJFIF inserts an APP0 JFIF segment right after SOI.
func jpegWithJFIF(t *testing.T, w, h int, unit byte, densX, densY uint16) []byte {
	t.Helper()
	data := encodeJPEG(t, w, h)

	seg := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, unit}
	seg = binary.BigEndian.AppendUint16(seg, densX)
	seg = binary.BigEndian.AppendUint16(seg, densY)
	seg = append(seg, 0x00, 0x00)

	out := append([]byte{}, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...)
}

// buildPDF lays out numbered objects and writes a matching xref table.
func buildPDF(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pdfText(lines ...string) []byte {
	return []byte("%PDF-1.4\n" + strings.Join(lines, "\n") + "\n")
}
