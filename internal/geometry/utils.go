package geometry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

const (
	metersPerInch    = 0.0254
	pointsPerInch    = 72.0
	inchesPerMeter   = 39.3701
	centimetersPerIn = 2.54
)

// round3 rounds half away from zero to millimeter precision.
func round3(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return f
}

func pixelsToMeters(pixels int, dpi float64) float64 {
	return round3(float64(pixels) / dpi * metersPerInch)
}

func pointsToMeters(points float64) float64 {
	return round3(points / pointsPerInch * metersPerInch)
}

func calculateChecksum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCalculateChecksum, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func ptr[T any](v T) *T {
	return &v
}
