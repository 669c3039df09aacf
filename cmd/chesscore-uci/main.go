package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 0, "hint table size in MB (0 uses the saved preference)")
	dbDir      = flag.String("db", "", "analysis database directory (default: platform data dir)")
	noCache    = flag.Bool("nocache", false, "do not read or write the analysis cache")
)

func main() {
	flag.Parse()
	log.SetPrefix("chesscore-uci: ")
	log.SetOutput(os.Stderr)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	prefs := storage.DefaultPreferences()
	var store *storage.Storage
	if !*noCache {
		var err error
		store, err = openStorage(*dbDir)
		if err != nil {
			log.Printf("Warning: analysis cache disabled: %v", err)
		} else {
			defer store.Close()
			if p, err := store.LoadPreferences(); err == nil {
				prefs = p
			}
		}
	}

	size := prefs.HashMB
	if *hashMB > 0 {
		size = *hashMB
	}
	eng := engine.NewEngine(size)
	eng.SetDifficulty(prefs.EngineDifficulty())
	eng.SetEvaluator(prefs.EngineEvaluator())
	if store != nil {
		eng.SetCache(store)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	protocol := uci.New(eng, os.Stdin, os.Stdout, os.Stderr)
	if err := protocol.Run(ctx); err != nil {
		log.Printf("input error: %v", err)
	}
}

func openStorage(dir string) (*storage.Storage, error) {
	if dir == "" {
		return storage.NewStorage()
	}
	return storage.Open(dir)
}
