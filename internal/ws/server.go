package ws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/coreman2200/marquee/internal/app"
	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/command"
	diag "github.com/coreman2200/marquee/internal/diagnostics"
	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/render"
)

const (
	writeWait = 200 * time.Millisecond
	// sendBuffer is how many messages a slow client may fall behind before
	// new ones are dropped.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// client owns one connection. Messages are queued and written by the
// client's own goroutine so a stalled browser never blocks the sender.
type client struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, out: make(chan []byte, sendBuffer), done: make(chan struct{})}
	go c.writePump()
	return c
}

// send queues b and reports false when the client is behind or closed.
func (c *client) send(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- b:
		return true
	default:
		return false
	}
}

func (c *client) close() { c.once.Do(func() { close(c.done) }) }

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Debug().Err(err).Msg("ws write")
				c.close()
				return
			}
		}
	}
}

// Server streams rendered frames and diagnostics to browsers and accepts
// editor commands.
type Server struct {
	S   *app.Session
	FPS int
	// Share, when set, is mounted at /api/share.
	Share http.Handler

	mu          sync.RWMutex
	clients     map[*client]bool
	diagClients map[*client]bool

	frameID   atomic.Uint64
	startTime time.Time
	unsub     func()
}

func NewServer(s *app.Session, fps int) *Server {
	srv := &Server{
		S:           s,
		FPS:         fps,
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		startTime:   time.Now(),
	}
	if hub := s.Hub(); hub != nil {
		srv.unsub = hub.Subscribe(srv.pushDiag)
	}
	return srv
}

// Close drops the diagnostics subscription.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// Routes returns the HTTP handler for every endpoint.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/state", s.HandleState)
	if s.Share != nil {
		mux.Handle("/api/share", s.Share)
	}
	return mux
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request, set map[*client]bool) *client {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil
	}
	c := newClient(conn)
	s.mu.Lock()
	set[c] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, c)
			s.mu.Unlock()
			c.close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return c
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	c := s.accept(w, r, s.clients)
	if c == nil {
		return
	}
	s.sendTopology(c)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	c := s.accept(w, r, s.diagClients)
	if c == nil {
		return
	}
	if hub := s.S.Hub(); hub != nil {
		for _, d := range hub.Recent() {
			b, _ := json.Marshal(d)
			c.send(b)
		}
	}
}

type controlMsg struct {
	Cmd string `json:"cmd"`
}

type controlReply struct {
	OK     bool       `json:"ok"`
	Error  string     `json:"error,omitempty"`
	Status app.Status `json:"status"`
}

// HandleControlWS runs editor command lines, one per message, and answers
// each with the resulting status. Uploads run in the background.
func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	defer c.close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg controlMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		reply := controlReply{OK: true}
		if command.Name(msg.Cmd) == "upload" {
			go func() {
				if err := s.S.Upload(context.Background()); err != nil {
					log.Warn().Err(err).Msg("upload from control socket")
				}
			}()
		} else if err := command.Run(r.Context(), s.S, msg.Cmd); err != nil {
			reply.OK, reply.Error = false, err.Error()
		}
		reply.Status = s.S.Status()
		b, _ := json.Marshal(reply)
		c.send(b)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	clients, diags := len(s.clients), len(s.diagClients)
	s.mu.RUnlock()
	resp := map[string]any{
		"frame_id":     s.frameID.Load(),
		"uptime_s":     time.Since(s.startTime).Seconds(),
		"fps":          s.FPS,
		"clients":      clients,
		"diag_clients": diags,
		"status":       s.S.Status(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleState returns the bank snapshot on GET and replaces it on POST.
func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.S.Store().Snapshot())
	case http.MethodPost:
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		snap, err := bank.DecodeSnapshot(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.S.LoadState(snap); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type frameMsg struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Pixels  []byte `json:"pixels"` // row-major, 0 or 255
}

// BroadcastFrame queues f for every frame client; clients that are behind
// skip it. It may run inside the session's render call, so it never calls
// back into the session.
func (s *Server) BroadcastFrame(f render.Frame) {
	n := s.frameID.Inc()
	b, _ := json.Marshal(frameMsg{T: time.Now().UnixNano(), FrameID: n, Pixels: f.Bytes()})
	s.broadcast(s.clients, b)
}

func (s *Server) broadcast(set map[*client]bool, b []byte) {
	s.mu.RLock()
	targets := make([]*client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	s.mu.RUnlock()
	for _, c := range targets {
		c.send(b)
	}
}

func (s *Server) sendTopology(c *client) {
	top := map[string]any{
		"dim":   map[string]int{"x": layout.Width, "y": layout.Height},
		"banks": layout.Banks,
		"fps":   s.FPS,
	}
	b, _ := json.Marshal(top)
	c.send(b)
}

func (s *Server) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.broadcast(s.diagClients, b)
}
