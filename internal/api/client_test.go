package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"print-roll-console/internal/pkg"
	"print-roll-console/internal/session"
	errs "print-roll-console/pkg"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess, err := session.New("secret", "tester")
	require.NoError(t, err)

	client, err := NewClient(srv.URL+"/api", pkg.NewHTTPClient(5*time.Second, 0), sess)
	require.NoError(t, err)
	return client, sess
}

func TestGetBoard(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/rolls/board", r.URL.Path)
		assert.Equal(t, "DTF", r.URL.Query().Get("area"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{
			"rolls": [{"id": 7, "name": "R7", "capacity": 50, "currentUsage": 10, "status": "Planificación",
				"machineId": null, "orders": [{"id": 1, "magnitude": "10.5", "type": "Ordinaria"}]}],
			"pendingOrders": [{"id": 2, "material": "Vinilo", "priority": "Urgente", "magnitude": 5}]
		}`)
	})

	snapshot, err := client.GetBoard(context.Background(), "DTF")
	require.NoError(t, err)
	require.Len(t, snapshot.Rolls, 1)
	require.Len(t, snapshot.PendingOrders, 1)
	assert.True(t, snapshot.Rolls[0].Orders[0].Magnitude.Equal(decimal.RequireFromString("10.5")))
	assert.Nil(t, snapshot.Rolls[0].MachineID)
	assert.Equal(t, "Vinilo", snapshot.PendingOrders[0].Material)
}

func TestMutationsSendExpectedBodies(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]any
	}
	var calls []call
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		calls = append(calls, call{r.Method, r.URL.Path, body})
		if r.Method == http.MethodPatch || r.URL.Path == "/api/rolls" {
			_, _ = io.WriteString(w, `{"id": 3, "name": "Nuevo", "capacity": 40}`)
		}
	})
	ctx := context.Background()

	require.NoError(t, client.MoveOrder(ctx, 11, 3))
	require.NoError(t, client.ReorderRoll(ctx, 3, []int64{11, 12}))
	require.NoError(t, client.UnassignOrder(ctx, 12))
	require.NoError(t, client.DismantleRoll(ctx, 3))
	roll, err := client.RenameRoll(ctx, 3, "Nuevo")
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", roll.Name)
	created, err := client.CreateRoll(ctx, RequestCreateRoll{AreaID: "DTF", Name: "Nuevo", Capacity: decimal.NewFromInt(40), Color: "#fff"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, created.ID)

	require.Len(t, calls, 6)
	assert.Equal(t, "/api/rolls/move-order", calls[0].path)
	assert.EqualValues(t, 11, calls[0].body["orderId"])
	assert.EqualValues(t, 3, calls[0].body["targetRollId"])
	assert.Equal(t, "/api/rolls/3/reorder", calls[1].path)
	assert.Equal(t, []any{float64(11), float64(12)}, calls[1].body["orderIds"])
	assert.Equal(t, "/api/rolls/unassign-order", calls[2].path)
	assert.Equal(t, "/api/rolls/dismantle/3", calls[3].path)
	assert.Equal(t, http.MethodPatch, calls[4].method)
	assert.Equal(t, "Nuevo", calls[4].body["name"])
	assert.Equal(t, "DTF", calls[5].body["areaId"])
}

func TestErrorStatusIsReported(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message": "roll is locked"}`)
	})

	err := client.MoveOrder(context.Background(), 1, 2)
	var reqErr *errs.ErrRequestFailed
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusConflict, reqErr.Status)
	assert.Contains(t, err.Error(), "roll is locked")
}

func TestClosedSessionRefusesRequests(t *testing.T) {
	client, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	})
	sess.Close()

	err := client.DismantleRoll(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrSessionClosed))
}

func TestUploadStream(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/web-orders/upload-stream", r.URL.Path)
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)

		form, err := multipart.NewReader(r.Body, params["boundary"]).ReadForm(1 << 20)
		require.NoError(t, err)
		assert.Equal(t, []string{"42"}, form.Value["dbId"])
		assert.Equal(t, []string{"banner-1x2m.pdf"}, form.Value["finalName"])
		assert.Equal(t, []string{"DTF"}, form.Value["area"])
		require.Len(t, form.File["file"], 1)

		f, err := form.File["file"][0].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4", string(data))
		_, _ = io.WriteString(w, `{"success": true, "path": "/files/banner.pdf"}`)
	})

	res, err := client.UploadStream(context.Background(), "Banner.pdf", strings.NewReader("%PDF-1.4"), UploadFields{
		DBID: "42", Type: "main", FinalName: "banner-1x2m.pdf", Area: "DTF",
	})
	require.NoError(t, err)
	assert.Equal(t, "/files/banner.pdf", res.Path)
}
