package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"print-roll-console/internal/pkg/model"
	"print-roll-console/internal/session"
	"print-roll-console/pkg"
)

var ErrUnsuccessful = errors.New("api reported success=false")

// Client is a thin wrapper over the production REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session *session.Session
}

func NewClient(baseURL string, httpClient *http.Client, sess *session.Session) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	return &Client{baseURL: u, http: httpClient, session: sess}, nil
}

func (c *Client) GetBoard(ctx context.Context, area string) (*BoardSnapshot, error) {
	var snapshot BoardSnapshot
	query := url.Values{"area": {area}}
	if err := c.do(ctx, http.MethodGet, "/rolls/board", query, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Client) CreateRoll(ctx context.Context, req RequestCreateRoll) (*model.Roll, error) {
	var roll model.Roll
	if err := c.do(ctx, http.MethodPost, "/rolls", nil, req, &roll); err != nil {
		return nil, err
	}
	return &roll, nil
}

func (c *Client) RenameRoll(ctx context.Context, rollID int64, name string) (*model.Roll, error) {
	var roll model.Roll
	path := "/rolls/" + strconv.FormatInt(rollID, 10)
	if err := c.do(ctx, http.MethodPatch, path, nil, requestRenameRoll{Name: &name}, &roll); err != nil {
		return nil, err
	}
	return &roll, nil
}

func (c *Client) MoveOrder(ctx context.Context, orderID, targetRollID int64) error {
	req := requestMoveOrder{OrderID: orderID, TargetRollID: targetRollID}
	return c.do(ctx, http.MethodPost, "/rolls/move-order", nil, req, nil)
}

func (c *Client) UnassignOrder(ctx context.Context, orderID int64) error {
	return c.do(ctx, http.MethodPost, "/rolls/unassign-order", nil, requestUnassignOrder{OrderID: orderID}, nil)
}

func (c *Client) ReorderRoll(ctx context.Context, rollID int64, orderIDs []int64) error {
	if orderIDs == nil {
		orderIDs = []int64{}
	}
	path := "/rolls/" + strconv.FormatInt(rollID, 10) + "/reorder"
	return c.do(ctx, http.MethodPost, path, nil, requestReorder{OrderIDs: orderIDs}, nil)
}

func (c *Client) DismantleRoll(ctx context.Context, rollID int64) error {
	path := "/rolls/dismantle/" + strconv.FormatInt(rollID, 10)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) RollDetails(ctx context.Context, rollID int64) (*RollDetails, error) {
	var details RollDetails
	path := "/rolls/" + strconv.FormatInt(rollID, 10) + "/details"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) AreaMapping(ctx context.Context) (*AreaMappingResponse, error) {
	var resp AreaMappingResponse
	if err := c.do(ctx, http.MethodGet, "/web-orders/area-mapping", nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &pkg.ErrRequestFailed{Method: http.MethodGet, Path: "/web-orders/area-mapping", Err: ErrUnsuccessful}
	}
	return &resp, nil
}

// UploadStream streams body as the "file" part of a multipart upload so the
// file is never buffered whole in memory.
func (c *Client) UploadStream(ctx context.Context, fileName string, body io.Reader, fields UploadFields) (*UploadResult, error) {
	const path = "/web-orders/upload-stream"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeUploadForm(mw, fileName, body, fields)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result UploadResult
	if err := c.send(req, path, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return &result, &pkg.ErrRequestFailed{Method: http.MethodPost, Path: path, Err: ErrUnsuccessful}
	}
	return &result, nil
}

func writeUploadForm(mw *multipart.Writer, fileName string, body io.Reader, fields UploadFields) error {
	values := [][2]string{
		{"dbId", fields.DBID},
		{"type", fields.Type},
		{"finalName", fields.FinalName},
		{"area", fields.Area},
	}
	for _, kv := range values {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &pkg.ErrRequestFailed{Method: method, Path: path, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, path, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &pkg.ErrRequestFailed{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	if c.session != nil {
		token, err := c.session.Token()
		if err != nil {
			return nil, &pkg.ErrRequestFailed{Method: method, Path: path, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, path string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &pkg.ErrRequestFailed{Method: req.Method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &pkg.ErrRequestFailed{
			Method: req.Method,
			Path:   path,
			Status: resp.StatusCode,
			Err:    errors.New(readErrorMessage(resp.Body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &pkg.ErrRequestFailed{Method: req.Method, Path: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func readErrorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return "empty response body"
}
