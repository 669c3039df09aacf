// Package server exposes the core over HTTP: a stateless JSON API where
// every request carries its position as FEN, and a websocket endpoint that
// streams engine analysis and can be stopped mid-search.
package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hailam/chesscore/internal/engine"
)

// Options configures a Server. Zero values pick the defaults below.
type Options struct {
	HashMB      int           // hint table per websocket client, default 8
	MaxDepth    int           // cap on requested depths, default 8
	MaxMoveTime time.Duration // cap on requested move times, default 30s
	Cache       engine.Cache  // shared analysis cache, may be nil
	Logger      *log.Logger   // diagnostics, default stderr
	AccessLog   io.Writer     // request log, nil disables it
}

func (o *Options) setDefaults() {
	if o.HashMB <= 0 {
		o.HashMB = 8
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 8
	}
	if o.MaxMoveTime <= 0 {
		o.MaxMoveTime = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = log.New(os.Stderr, "chesscore-server: ", log.LstdFlags)
	}
}

// Server routes requests to the API and websocket handlers.
type Server struct {
	opts     Options
	log      *log.Logger
	router   *mux.Router
	handler  http.Handler
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[string]*client
}

// New builds a Server.
func New(opts Options) *Server {
	opts.setDefaults()
	s := &Server{
		opts:   opts,
		log:    opts.Logger,
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string]*client),
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/moves", s.handleMoves).Methods(http.MethodGet)
	api.HandleFunc("/move", s.handleMove).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/bestmove", s.handleBestMove).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.handleWS)
	s.router.NotFoundHandler = http.HandlerFunc(notFound)

	var h http.Handler = s.router
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(s.log), handlers.PrintRecoveryStack(true))(h)
	if opts.AccessLog != nil {
		h = handlers.LoggingHandler(opts.AccessLog, h)
	}
	s.handler = h
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops every running analysis and waits for it to finish.
func (s *Server) Close() {
	s.clientsMu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()
	for _, c := range clients {
		c.shutdown()
		c.conn.Close()
	}
}

// Clients returns the names of the connected websocket clients.
func (s *Server) Clients() []string {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	names := make([]string, 0, len(s.clients))
	for name := range s.clients {
		names = append(names, name)
	}
	return names
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
