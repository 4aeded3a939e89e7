package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	merrors "github.com/vango-dev/meridian/internal/errors"
)

// ReloadPath is where browsers connect for reload notifications.
const ReloadPath = "/_meridian/reload"

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 8
)

// MessageType is the kind of a Message.
type MessageType string

const (
	MessageReload MessageType = "reload"
	MessageError  MessageType = "error"
	MessageClear  MessageType = "clear"
)

// Message is sent to browsers as JSON.
type Message struct {
	Type MessageType `json:"type"`

	// Reason says what triggered a reload, e.g. the changed file.
	Reason string `json:"reason,omitempty"`

	// Code and Error describe a pipeline failure.
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// ReloadServer holds the browser connections of a dev server. The last
// error is replayed to browsers that connect while it is shown, which
// covers a page that failed before its script could connect.
type ReloadServer struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu        sync.Mutex
	clients   map[*client]struct{}
	lastError []byte
	closed    bool
}

// NewReloadServer creates a reload server.
func NewReloadServer(logger *slog.Logger) *ReloadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 1024,
			// Dev servers are reached through arbitrary hostnames.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the connection and keeps it until the browser goes
// away or the server closes.
func (r *ReloadServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("reload upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !r.register(c) {
		conn.Close()
		return
	}
	go c.writeLoop()

	// Browsers never send anything; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	r.unregister(c)
}

func (r *ReloadServer) register(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.clients[c] = struct{}{}
	if r.lastError != nil {
		c.send <- r.lastError
	}
	return true
}

func (r *ReloadServer) unregister(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
	c.conn.Close()
}

func (c *client) writeLoop() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			// The read loop sees the closed connection and unregisters.
			c.conn.Close()
			return
		}
	}
}

// NotifyReload tells browsers to reload and clears any error.
func (r *ReloadServer) NotifyReload(reason string) {
	r.logger.Info("reloading browsers", "reason", reason, "clients", r.ClientCount())
	r.broadcast(Message{Type: MessageReload, Reason: reason}, false)
}

// NotifyError shows err in an overlay until the next reload or
// ClearError.
func (r *ReloadServer) NotifyError(err error) {
	r.broadcast(Message{Type: MessageError, Code: merrors.CodeOf(err), Error: err.Error()}, true)
}

// ClearError removes the error overlay.
func (r *ReloadServer) ClearError() {
	r.broadcast(Message{Type: MessageClear}, false)
}

// broadcast queues msg for every client. A client whose queue is full is
// disconnected. keep makes msg the error replayed to new clients.
func (r *ReloadServer) broadcast(msg Message, keep bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastError = nil
	if keep {
		r.lastError = data
	}
	for c := range r.clients {
		select {
		case c.send <- data:
		default:
			delete(r.clients, c)
			close(c.send)
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected browsers.
func (r *ReloadServer) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close disconnects every browser and refuses new connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for c := range r.clients {
		delete(r.clients, c)
		close(c.send)
		c.conn.Close()
	}
}

// ClientScript is the body of the inline script pages load in dev mode.
const ClientScript = `(function () {
  var delay = 500;
  var overlayID = 'meridian-error-overlay';

  function overlay(msg) {
    clear();
    var el = document.createElement('pre');
    el.id = overlayID;
    el.style.cssText = 'position:fixed;inset:0;margin:0;padding:24px;background:#111e;color:#f66;font:13px/1.5 monospace;white-space:pre-wrap;overflow:auto;z-index:2147483647';
    el.textContent = (msg.code ? '[' + msg.code + '] ' : '') + msg.error;
    document.body.appendChild(el);
  }

  function clear() {
    var el = document.getElementById(overlayID);
    if (el) el.remove();
  }

  function connect() {
    var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(scheme + location.host + '` + ReloadPath + `');
    ws.onopen = function () { delay = 500; };
    ws.onmessage = function (e) {
      var msg = JSON.parse(e.data);
      if (msg.type === 'reload') location.reload();
      else if (msg.type === 'error') overlay(msg);
      else if (msg.type === 'clear') clear();
    };
    ws.onclose = function () {
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 10000);
    };
  }

  if (document.readyState === 'loading') document.addEventListener('DOMContentLoaded', connect);
  else connect();
})();`
