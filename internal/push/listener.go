package push

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"print-roll-console/internal/pkg/config"
	"print-roll-console/internal/pkg/metrics"
	"print-roll-console/internal/session"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
)

const EventOrdersUpdated = "orders_updated"

var ErrNoURL = errors.New("push url is not configured")

// Handler is called once per "orders updated" event. It runs on the listener
// goroutine, so it should hand work off rather than block.
type Handler func(ctx context.Context)

type Listener interface {
	Run(ctx context.Context) error
}

type DefaultListener struct {
	cfg     *config.PushCfg
	session *session.Session
	handler Handler
}

func NewDefaultListener(cfg *config.PushCfg, sess *session.Session, handler Handler) Listener {
	return &DefaultListener{
		cfg:     cfg,
		session: sess,
		handler: handler,
	}
}

// Run keeps a connection to the push channel open until ctx is done,
// reconnecting with exponential backoff whenever it drops.
func (d *DefaultListener) Run(ctx context.Context) error {
	if d.cfg.URL == "" {
		return ErrNoURL
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.cfg.MinBackoff
	b.MaxInterval = d.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	for {
		connected, err := d.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		slog.Warn("Push channel disconnected", "error", err, "retryIn", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// listen holds one connection. connected reports whether the dial succeeded.
func (d *DefaultListener) listen(ctx context.Context) (connected bool, err error) {
	header := http.Header{}
	if d.session != nil {
		token, err := d.session.Token()
		if err != nil {
			return false, err
		}
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.Dial(ctx, d.cfg.URL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return false, err
	}
	defer conn.CloseNow()

	metrics.PushConnected.Set(1)
	defer metrics.PushConnected.Set(0)
	slog.Info("Connected to push channel", "url", d.cfg.URL)

	// the board may have changed while we were away
	d.handler(ctx)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return true, err
		}
		if typ != websocket.MessageText {
			continue
		}
		if IsOrdersUpdated(data) {
			d.handler(ctx)
		}
	}
}

type event struct {
	Type  string `json:"type"`
	Event string `json:"event"`
}

// IsOrdersUpdated accepts both a bare event name and a JSON envelope.
func IsOrdersUpdated(data []byte) bool {
	text := strings.TrimSpace(string(data))
	if text == EventOrdersUpdated {
		return true
	}
	var e event
	if err := json.Unmarshal([]byte(text), &e); err != nil {
		return false
	}
	return e.Type == EventOrdersUpdated || e.Event == EventOrdersUpdated
}
