package sse

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// Time between keepalive comments
	pingPeriod = 15 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256

	// reconnectDelay is the retry hint sent to browsers, in milliseconds
	reconnectDelay = 3000
)

// Client is one open event stream on a hub
type Client struct {
	hub         *Hub
	remote      string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a client for hub; remote is only used in logs
func NewClient(hub *Hub, remote string) *Client {
	return &Client{
		hub:         hub,
		remote:      remote,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Messages returns the channel of formatted messages for this client.
// It is closed when the client is unregistered or the hub shuts down.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// ServeSSE subscribes to topic and streams its messages until the client
// disconnects or the hub closes
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, topic string) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("X-Accel-Buffering", "no") // nginx

	if err := rc.Flush(); errors.Is(err, http.ErrNotSupported) {
		h.Del("Content-Type")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := manager.Subscribe(topic, r.RemoteAddr)
	hub := client.hub
	defer hub.Unregister(client)

	hello := fmt.Sprintf("retry: %d\n", reconnectDelay)
	hello += string(formatSSEMessage("connected", fmt.Sprintf(`{"status":"connected","topic":%q}`, hub.Topic())))
	if !write(w, rc, []byte(hello)) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if !write(w, rc, message) {
				return
			}
		case <-ticker.C:
			if !write(w, rc, []byte(": keepalive\n\n")) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// write sends b and flushes it, reporting whether the stream is still usable
func write(w http.ResponseWriter, rc *http.ResponseController, b []byte) bool {
	if _, err := w.Write(b); err != nil {
		return false
	}
	return rc.Flush() == nil
}
