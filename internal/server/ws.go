package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/gorilla/websocket"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
)

// Message types exchanged on /ws.
const (
	msgHello    = "hello"
	msgAnalyze  = "analyze"
	msgStop     = "stop"
	msgInfo     = "info"
	msgBestMove = "bestmove"
	msgError    = "error"
)

// request is a message from the browser.
type request struct {
	Type     string `json:"type"`
	FEN      string `json:"fen,omitempty"`
	Depth    int    `json:"depth,omitempty"`
	MoveTime int    `json:"movetime,omitempty"` // milliseconds
	Infinite bool   `json:"infinite,omitempty"`
}

// event is a message to the browser.
type event struct {
	Type      string   `json:"type"`
	Name      string   `json:"name,omitempty"`
	Depth     int      `json:"depth,omitempty"`
	Score     int      `json:"score"`
	ScoreText string   `json:"scoreText,omitempty"`
	Nodes     uint64   `json:"nodes,omitempty"`
	TimeMs    int64    `json:"timeMs,omitempty"`
	PV        []string `json:"pv,omitempty"`
	Move      string   `json:"move,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// client is one websocket connection with its own engine. At most one
// analysis runs per client; a new request stops the previous one.
type client struct {
	name string
	conn *websocket.Conn
	eng  *engine.Engine

	writeMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	closed  bool // no analysis starts once set
	running sync.WaitGroup
}

func (c *client) send(ev event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(ev)
}

// stop cancels the running analysis and waits for its final message.
func (c *client) stop() {
	c.halt(false)
}

// shutdown stops the client for good: later analyze requests are refused.
func (c *client) shutdown() {
	c.halt(true)
}

func (c *client) halt(closing bool) {
	c.mu.Lock()
	if closing {
		c.closed = true
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.running.Wait()
}

// deliver sends ev to c, logging a failed write. The read loop notices a
// dead connection on its own.
func (s *Server) deliver(c *client, ev event) {
	if err := c.send(ev); err != nil {
		s.log.Printf("client %s: send %s: %v", c.name, ev.Type, err)
	}
}

// uniqueName picks a petname not already in use. Callers hold clientsMu.
func (s *Server) uniqueName() string {
	name := petname.Generate(2, "-")
	for i := 2; ; i++ {
		if _, taken := s.clients[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s-%d", petname.Generate(2, "-"), i)
	}
}

func (s *Server) addClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, eng: engine.NewEngine(s.opts.HashMB)}
	c.eng.SetEvaluator(engine.NewStructureEvaluator(1))
	if s.opts.Cache != nil {
		c.eng.SetCache(s.opts.Cache)
	}
	s.clientsMu.Lock()
	c.name = s.uniqueName()
	s.clients[c.name] = c
	s.clientsMu.Unlock()
	return c
}

func (s *Server) removeClient(c *client) {
	c.shutdown()
	s.clientsMu.Lock()
	delete(s.clients, c.name)
	s.clientsMu.Unlock()
	c.conn.Close()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.log.Printf("websocket upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	c := s.addClient(conn)
	defer s.removeClient(c)
	s.log.Printf("client %s connected from %s", c.name, conn.RemoteAddr())

	if err := c.send(event{Type: msgHello, Name: c.name}); err != nil {
		s.log.Printf("client %s: send %s: %v", c.name, msgHello, err)
		return
	}
	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Printf("client %s: %v", c.name, err)
			}
			s.log.Printf("client %s disconnected", c.name)
			return
		}
		switch req.Type {
		case msgAnalyze:
			s.analyze(c, req)
		case msgStop:
			c.stop()
		default:
			s.deliver(c, event{Type: msgError, Error: "unknown message type " + req.Type})
		}
	}
}

// limitsFor turns a request into search limits within the server caps.
func (s *Server) limitsFor(req request) engine.SearchLimits {
	limits := engine.SearchLimits{
		Depth:    min(max(req.Depth, 0), s.opts.MaxDepth),
		MoveTime: min(time.Duration(max(req.MoveTime, 0))*time.Millisecond, s.opts.MaxMoveTime),
	}
	switch {
	case req.Infinite:
		limits.Depth, limits.MoveTime = s.opts.MaxDepth, 0
		limits.Infinite = true
	case limits.Depth == 0 && limits.MoveTime == 0:
		limits = engine.DifficultySettings[engine.Medium]
	case limits.Depth == 0:
		limits.Depth = s.opts.MaxDepth
	}
	return limits
}

// analyze starts a search for req in the background. Progress is streamed
// as info events and the search always ends with a bestmove or an error.
func (s *Server) analyze(c *client, req request) {
	c.stop()

	pos, err := loadFEN(req.FEN)
	if err != nil {
		s.deliver(c, event{Type: msgError, Error: err.Error()})
		return
	}
	limits := s.limitsFor(req)

	root := pos.Copy()
	c.eng.OnInfo = func(info engine.SearchInfo) {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		s.deliver(c, event{
			Type:      msgInfo,
			Depth:     info.Depth,
			Score:     info.Score,
			ScoreText: engine.ScoreString(info.Score),
			Nodes:     info.Nodes,
			TimeMs:    info.Time.Milliseconds(),
			PV:        pv,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancel = cancel
	// Added under mu so that shutdown never waits while an Add is pending.
	c.running.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.running.Done()
		defer cancel()
		res, err := c.eng.SearchWithLimits(ctx, pos, limits)
		if err != nil {
			if !errors.Is(err, engine.ErrSearchCancelled) {
				s.log.Printf("client %s: search: %v", c.name, err)
			}
			s.deliver(c, event{Type: msgError, Error: err.Error()})
			return
		}
		move := res.Move.String()
		if res.Move == board.NoMove {
			move = board.NoMove.String()
		} else if _, _, err := game.ApplyNotation(root.Copy(), move); err != nil {
			s.log.Printf("client %s: engine returned %s: %v", c.name, move, err)
		}
		s.deliver(c, event{
			Type:      msgBestMove,
			Move:      move,
			Score:     res.Score,
			ScoreText: engine.ScoreString(res.Score),
			Depth:     res.Depth,
			Nodes:     res.Nodes,
		})
	}()
}
