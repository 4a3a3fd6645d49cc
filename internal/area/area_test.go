package area

import (
	"context"
	"encoding/json"
	"testing"

	"print-roll-console/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) *api.AreaMappingResponse {
	t.Helper()
	var resp api.AreaMappingResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return &resp
}

type stubSource struct {
	resp  *api.AreaMappingResponse
	calls int
}

func (s *stubSource) AreaMapping(context.Context) (*api.AreaMappingResponse, error) {
	s.calls++
	return s.resp, nil
}

func TestDecode(t *testing.T) {
	resp := decodeJSON(t, `{
		"success": true,
		"data": {"visibility": {
			"DTF": {"visible": true, "category": "print", "maxWidthMeters": 0.58},
			"SUB": {"visible": true, "category": "Textile", "supportsRaport": true, "supportsTwinface": true},
			"ECOUV": {"visible": false},
			"TWC": {"visible": true, "category": "complementary", "complementarios": ["costura", "corte"]}
		}}
	}`)

	mapping, err := Decode(resp)
	require.NoError(t, err)

	assert.Equal(t, []string{"DTF", "SUB", "TWC"}, mapping.Visible())
	assert.Equal(t, CategoryTextile, mapping["SUB"].Category)
	assert.True(t, mapping["SUB"].Raport)
	assert.Equal(t, CategoryPrint, mapping["ECOUV"].Category)
	assert.Equal(t, []string{"costura", "corte"}, mapping["TWC"].Complementary)
	require.NotNil(t, mapping["DTF"].MaxWidthMeters)
	assert.InDelta(t, 0.58, *mapping["DTF"].MaxWidthMeters, 1e-9)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode(decodeJSON(t, `{"success": true, "data": {"visibility": {"X": {"category": "laser"}}}}`))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = Decode(decodeJSON(t, `{"success": true, "data": {"visibility": {" ": {"visible": true}}}}`))
	assert.ErrorIs(t, err, ErrEmptyAreaCode)

	_, err = Decode(decodeJSON(t, `{"success": false}`))
	assert.ErrorIs(t, err, ErrMappingFailed)
}

func TestServiceLoadsOnce(t *testing.T) {
	src := &stubSource{resp: decodeJSON(t, `{"success": true, "data": {"visibility": {"DTF": {"visible": true}}}}`)}
	svc := NewDefaultService(src)

	v, err := svc.Get(context.Background(), "DTF")
	require.NoError(t, err)
	assert.True(t, v.Visible)

	_, err = svc.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownArea)
	assert.Equal(t, 1, src.calls)
}
