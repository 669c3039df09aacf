package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/hailam/chesscore/internal/server"
	"github.com/hailam/chesscore/internal/storage"
)

const defaultPort = 8080

var (
	port     = flag.Uint("port", defaultPort, "port to listen on")
	hashMB   = flag.Int("hash", 8, "hint table size in MB per websocket client")
	maxDepth = flag.Int("maxdepth", 8, "deepest search a client may request")
	dbDir    = flag.String("db", "", "analysis database directory (default: platform data dir)")
	noCache  = flag.Bool("nocache", false, "do not read or write the analysis cache")
	quiet    = flag.Bool("quiet", false, "disable the request log")
)

func main() {
	flag.Parse()
	log.SetPrefix("chesscore-server: ")
	log.SetOutput(os.Stderr)

	if *port == 0 || *port > 65535 {
		log.Fatalf("invalid port %d", *port)
	}

	opts := server.Options{
		HashMB:   *hashMB,
		MaxDepth: *maxDepth,
		Logger:   log.Default(),
	}
	if !*quiet {
		opts.AccessLog = os.Stdout
	}
	if !*noCache {
		store, err := openStorage(*dbDir)
		if err != nil {
			log.Printf("Warning: analysis cache disabled: %v", err)
		} else {
			defer store.Close()
			opts.Cache = store
		}
	}

	srv := server.New(opts)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Fatal(err)
	}
	if err := serve(ctx, httpServer, srv, ln); err != nil {
		log.Fatal(err)
	}
}

// serve runs httpServer on ln until ctx is done, then stops the websocket
// clients and drains the HTTP server. It returns only after shutdown has
// finished, so the caller may release what the handlers use.
func serve(ctx context.Context, httpServer *http.Server, srv *server.Server, ln net.Listener) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		srv.Close()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdown); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", ln.Addr())
	if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func openStorage(dir string) (*storage.Storage, error) {
	if dir == "" {
		return storage.NewStorage()
	}
	return storage.Open(dir)
}
