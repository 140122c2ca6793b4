// Package notify fans transient user-facing notices (toasts, banners) out
// to registered listeners. Mutating operations publish a notice on both
// success and failure; reads stay silent.
package notify

import (
	"sync"
	"time"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a single transient notification.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Listener receives published notices.
type Listener func(Notice)

// Center is a typed publish/subscribe point for notices. The zero value is
// not usable; construct with NewCenter. A nil *Center is safe to publish
// to, so components can treat their notifier as optional.
type Center struct {
	mu        sync.Mutex
	listeners []Listener
}

func NewCenter() *Center {
	return &Center{}
}

// Subscribe registers a listener for all future notices.
func (c *Center) Subscribe(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Center) publish(level Level, message string) {
	if c == nil {
		return
	}
	notice := Notice{Level: level, Message: message, At: time.Now()}
	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(notice)
	}
}

// Success publishes a success notice.
func (c *Center) Success(message string) { c.publish(LevelSuccess, message) }

// Error publishes an error notice.
func (c *Center) Error(message string) { c.publish(LevelError, message) }

// Info publishes an informational notice.
func (c *Center) Info(message string) { c.publish(LevelInfo, message) }
