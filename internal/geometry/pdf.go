package geometry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

const numberRe = `([-+]?(?:\d+\.?\d*|\.\d+))`

var (
	boxRe     = regexp.MustCompile(`/(MediaBox|CropBox)\s*\[\s*` + numberRe + `\s+` + numberRe + `\s+` + numberRe + `\s+` + numberRe + `\s*\]`)
	rotateRe  = regexp.MustCompile(`/Rotate\s+([-+]?\d+)`)
	lineBreak = regexp.MustCompile(`[\r\n]+`)
)

type BoxKind string

const (
	MediaBox BoxKind = "MediaBox"
	CropBox  BoxKind = "CropBox"
)

// PageBox is a page rectangle in PDF points.
type PageBox struct {
	Kind    BoxKind
	Width   float64
	Height  float64
	Rotated bool
}

func (b PageBox) area() float64 {
	return b.Width * b.Height
}

// oriented returns width and height as the page is displayed.
func (b PageBox) oriented() (float64, float64) {
	if b.Rotated {
		return b.Height, b.Width
	}
	return b.Width, b.Height
}

type PDFOptions struct {
	HeadBytes     int64
	TailBytes     int64
	TailThreshold int64
}

type PDFDimensions struct {
	Box          PageBox
	WidthMeters  float64
	HeightMeters float64
	PageCount    *int
	// Source is "head", "tail" or "structure".
	Source string
}

// MeasurePDF reports the printable size of the first page. The raw head and
// tail of the file are searched for page boxes first; when page objects sit
// inside compressed object streams the page tree is walked instead.
func MeasurePDF(r io.ReaderAt, size int64, opts PDFOptions) (*PDFDimensions, error) {
	type chunk struct {
		name string
		data []byte
	}
	var chunks []chunk

	if head, err := readChunk(r, 0, min(size, opts.HeadBytes)); err == nil {
		chunks = append(chunks, chunk{"head", head})
	}
	if size > opts.TailThreshold {
		n := min(opts.TailBytes, size)
		if tail, err := readChunk(r, size-n, n); err == nil {
			chunks = append(chunks, chunk{"tail", tail})
		}
	}

	// precedence applies across both chunks, so a tail MediaBox beats a
	// head CropBox
	var (
		best   PageBox
		source string
	)
	for _, c := range chunks {
		box, ok := FindPageBox(c.data)
		if !ok {
			continue
		}
		if source == "" || betterBox(box, best) {
			best, source = box, c.name
		}
	}
	if source != "" {
		res := newPDFDimensions(best, source)
		if pages, err := countPages(r, size); err == nil {
			res.PageCount = &pages
		}
		return res, nil
	}

	box, pages, err := readFirstPage(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMediaBoxFound, err)
	}
	res := newPDFDimensions(*box, "structure")
	res.PageCount = &pages
	return res, nil
}

func newPDFDimensions(box PageBox, source string) *PDFDimensions {
	w, h := box.oriented()
	return &PDFDimensions{
		Box:          box,
		WidthMeters:  pointsToMeters(w),
		HeightMeters: pointsToMeters(h),
		Source:       source,
	}
}

// FindPageBox searches raw PDF text for page boxes. Any MediaBox beats any
// CropBox, the largest box of a kind wins and boxes smaller than one point in
// either direction are ignored.
func FindPageBox(text []byte) (PageBox, bool) {
	text = lineBreak.ReplaceAll(text, []byte(" "))

	var media, crop *PageBox
	for _, m := range boxRe.FindAllSubmatch(text, -1) {
		box, ok := parseBox(BoxKind(m[1]), m[2:6])
		if !ok {
			continue
		}
		target := &media
		if box.Kind == CropBox {
			target = &crop
		}
		if *target == nil || box.area() > (*target).area() {
			*target = &box
		}
	}

	best := media
	if best == nil {
		best = crop
	}
	if best == nil {
		return PageBox{}, false
	}
	best.Rotated = hasQuarterRotation(text)
	return *best, true
}

// betterBox reports whether a should replace b: any MediaBox beats any
// CropBox, then the larger area wins.
func betterBox(a, b PageBox) bool {
	if a.Kind != b.Kind {
		return a.Kind == MediaBox
	}
	return a.area() > b.area()
}

func parseBox(kind BoxKind, fields [][]byte) (PageBox, bool) {
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(string(f), 64)
		if err != nil {
			return PageBox{}, false
		}
		v[i] = n
	}
	w := math.Abs(v[2] - v[0])
	h := math.Abs(v[3] - v[1])
	if w < 1 || h < 1 {
		return PageBox{}, false
	}
	return PageBox{Kind: kind, Width: w, Height: h}, true
}

func hasQuarterRotation(text []byte) bool {
	for _, m := range rotateRe.FindAllSubmatch(text, -1) {
		deg, err := strconv.Atoi(string(bytes.TrimPrefix(m[1], []byte("+"))))
		if err != nil {
			continue
		}
		if isQuarterTurn(deg) {
			return true
		}
	}
	return false
}

func isQuarterTurn(deg int) bool {
	deg = ((deg % 360) + 360) % 360
	return deg == 90 || deg == 270
}

// readFirstPage walks the page tree. The pdf reader may panic on hostile
// input, which is turned into an error here.
func readFirstPage(r io.ReaderAt, size int64) (box *PageBox, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			box, pages, err = nil, 0, &ErrPDFParse{Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	doc, err := pdf.NewReader(io.NewSectionReader(r, 0, size), nil)
	if err != nil {
		return nil, 0, &ErrPDFParse{Err: err}
	}
	defer doc.Close()

	pages, err = pagetree.NumPages(doc)
	if err != nil {
		return nil, 0, &ErrPDFParse{Err: err}
	}

	_, pageDict, err := pagetree.GetPage(doc, 0)
	if err != nil {
		return nil, 0, &ErrPDFParse{Err: err}
	}

	for _, kind := range []BoxKind{MediaBox, CropBox} {
		rect, err := pdf.GetRectangle(doc, pageDict[pdf.Name(kind)])
		if err != nil || rect == nil {
			continue
		}
		w, h := rect.URx-rect.LLx, rect.URy-rect.LLy
		if w < 1 || h < 1 {
			continue
		}
		rotate, _ := pdf.GetInteger(doc, pageDict["Rotate"])
		return &PageBox{Kind: kind, Width: w, Height: h, Rotated: isQuarterTurn(int(rotate))}, pages, nil
	}
	return nil, 0, &ErrPDFParse{Err: errors.New("first page has no usable box")}
}

func countPages(r io.ReaderAt, size int64) (pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, &ErrPDFParse{Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	doc, err := pdf.NewReader(io.NewSectionReader(r, 0, size), nil)
	if err != nil {
		return 0, &ErrPDFParse{Err: err}
	}
	defer doc.Close()

	return pagetree.NumPages(doc)
}
