package area

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"print-roll-console/internal/api"
)

type Category string

const (
	CategoryPrint         Category = "print"
	CategoryTextile       Category = "textile"
	CategoryComplementary Category = "complementary"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPrint, CategoryTextile, CategoryComplementary:
		return true
	}
	return false
}

var (
	ErrEmptyAreaCode   = errors.New("area code must not be empty")
	ErrUnknownCategory = errors.New("unknown area category")
	ErrMappingFailed   = errors.New("area mapping request was not successful")
	ErrUnknownArea     = errors.New("unknown area")
)

// Visibility describes how one production area shows up in the order form.
type Visibility struct {
	Code           string
	Visible        bool
	Category       Category
	Complementary  []string
	MaxWidthMeters *float64
	Raport         bool
	Twinface       bool
}

type Mapping map[string]Visibility

// Visible returns the codes of the visible areas in a stable order.
func (m Mapping) Visible() []string {
	var codes []string
	for code, v := range m {
		if v.Visible {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes
}

// Decode validates the raw area mapping. A missing category means a print
// area; anything else outside the known categories is rejected.
func Decode(resp *api.AreaMappingResponse) (Mapping, error) {
	if resp == nil || !resp.Success {
		return nil, ErrMappingFailed
	}

	mapping := make(Mapping, len(resp.Data.Visibility))
	var errs []error
	for code, dto := range resp.Data.Visibility {
		code = strings.TrimSpace(code)
		if code == "" {
			errs = append(errs, ErrEmptyAreaCode)
			continue
		}
		category := Category(strings.ToLower(strings.TrimSpace(dto.Category)))
		if category == "" {
			category = CategoryPrint
		}
		if !category.Valid() {
			errs = append(errs, fmt.Errorf("%w %q for area %s", ErrUnknownCategory, dto.Category, code))
			continue
		}
		mapping[code] = Visibility{
			Code:           code,
			Visible:        dto.Visible,
			Category:       category,
			Complementary:  slices.Clone(dto.Complementarios),
			MaxWidthMeters: dto.MaxWidthMeters,
			Raport:         dto.SupportsRaport,
			Twinface:       dto.SupportsTwinface,
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return mapping, nil
}

type Source interface {
	AreaMapping(ctx context.Context) (*api.AreaMappingResponse, error)
}

type Service interface {
	Load(ctx context.Context) (Mapping, error)
	Get(ctx context.Context, code string) (Visibility, error)
}

// DefaultService loads the mapping once and keeps it until Load is called
// again.
type DefaultService struct {
	source Source

	mu      sync.RWMutex
	mapping Mapping
}

func NewDefaultService(source Source) Service {
	return &DefaultService{source: source}
}

func (d *DefaultService) Load(ctx context.Context) (Mapping, error) {
	resp, err := d.source.AreaMapping(ctx)
	if err != nil {
		slog.Error("Failed to fetch area mapping", "error", err)
		return nil, err
	}
	mapping, err := Decode(resp)
	if err != nil {
		slog.Error("Failed to decode area mapping", "error", err)
		return nil, err
	}

	d.mu.Lock()
	d.mapping = mapping
	d.mu.Unlock()
	return mapping, nil
}

func (d *DefaultService) Get(ctx context.Context, code string) (Visibility, error) {
	d.mu.RLock()
	mapping := d.mapping
	d.mu.RUnlock()

	if mapping == nil {
		var err error
		if mapping, err = d.Load(ctx); err != nil {
			return Visibility{}, err
		}
	}
	v, ok := mapping[code]
	if !ok {
		return Visibility{}, fmt.Errorf("%w: %s", ErrUnknownArea, code)
	}
	return v, nil
}
