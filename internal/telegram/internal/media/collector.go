package media

import (
	"strings"
	"sync"
	"time"

	"print-roll-console/internal/file"

	"github.com/go-telegram/bot/models"
)

// Collector groups the files an operator sends in quick succession (an album
// arrives as one message per file) into a single batch.
type Collector struct {
	windows map[int64]*Window
	delay   time.Duration
	mu      sync.Mutex
}

type Window struct {
	ChatID  int64
	Files   []file.RequestFile
	Caption string
	Timer   *time.Timer
	mu      sync.Mutex
	flushed bool
}

func NewCollector(delay time.Duration) *Collector {
	return &Collector{
		windows: make(map[int64]*Window),
		delay:   delay,
	}
}

func (c *Collector) getOrCreateWindow(id int64) *Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	if window, ok := c.windows[id]; ok {
		return window
	}
	window := &Window{}
	c.windows[id] = window
	return window
}

func (c *Collector) deleteWindow(id int64, window *Window) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.windows[id] == window {
		delete(c.windows, id)
	}
}

// ProcessMessage adds the files of message to the sender's window. onFlush
// runs once the sender has been quiet for the collector delay.
func (c *Collector) ProcessMessage(message *models.Message, onFlush func(userID int64, window *Window)) {
	if message.From == nil || !HasFiles(message) {
		return
	}
	userID := message.From.ID
	window := c.getOrCreateWindow(userID)
	window.mu.Lock()
	// lost the race against a flush, start a fresh window
	for window.flushed {
		window.mu.Unlock()
		window = c.getOrCreateWindow(userID)
		window.mu.Lock()
	}
	defer window.mu.Unlock()

	window.ChatID = message.Chat.ID
	window.Files = append(window.Files, ExtractFiles(message)...)
	if caption := strings.TrimSpace(message.Caption); caption != "" && window.Caption == "" {
		window.Caption = caption
	}

	if window.Timer != nil {
		window.Timer.Stop()
	}
	window.Timer = time.AfterFunc(c.delay, func() {
		c.deleteWindow(userID, window)
		window.mu.Lock()
		defer window.mu.Unlock()
		if window.flushed {
			return
		}
		window.flushed = true
		onFlush(userID, window)
	})
}
