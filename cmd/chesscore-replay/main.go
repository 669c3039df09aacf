// Command chesscore-replay replays PGN files through the core, reporting
// any move the core rejects and any final position that disagrees with
// the recorded result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/pgn"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	workers   = flag.Int("workers", runtime.NumCPU(), "games replayed in parallel")
	showBoard = flag.Bool("board", false, "print the final position of every game")
	record    = flag.Bool("record", false, "add finished games to the saved statistics")
	dbDir     = flag.String("db", "", "database directory for -record (default: platform data dir)")
	noColor   = flag.Bool("nocolor", false, "disable colored output")
)

type outcome struct {
	rec  pgn.Record
	res  pgn.Replayed
	err  error
	file string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file.pgn...]\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "With no files, every .pgn file in the data directory's pgn folder is replayed.")
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetPrefix("chesscore-replay: ")
	log.SetFlags(0)
	if *noColor {
		color.NoColor = true
	}

	files := flag.Args()
	if len(files) == 0 {
		var err error
		if files, err = defaultFiles(); err != nil {
			log.Fatal(err)
		}
		if len(files) == 0 {
			flag.Usage()
			os.Exit(2)
		}
	}

	var outcomes []outcome
	for _, path := range files {
		recs, err := pgn.LoadFile(path)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		outs, err := replayAll(context.Background(), path, recs, *workers)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		outcomes = append(outcomes, outs...)
	}

	failed := report(outcomes)

	if *record {
		if err := recordStats(outcomes); err != nil {
			log.Printf("recording statistics: %v", err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// defaultFiles lists the PGN files in the data directory.
func defaultFiles() ([]string, error) {
	dir, err := storage.GetPGNDir()
	if err != nil {
		return nil, err
	}
	return filepath.Glob(filepath.Join(dir, "*.pgn"))
}

// replayAll replays recs with at most n games in flight. Each game gets its
// own Position, so workers share nothing but the result slice.
func replayAll(ctx context.Context, file string, recs []pgn.Record, n int) ([]outcome, error) {
	out := make([]outcome, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(n, 1))
	for i, rec := range recs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := pgn.Replay(rec)
			out[i] = outcome{rec: rec, res: res, err: err, file: file}
			return nil
		})
	}
	return out, g.Wait()
}

// report prints one line per game and returns how many failed.
func report(outcomes []outcome) int {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	failed := 0
	for _, o := range outcomes {
		label := fmt.Sprintf("%s: %s", o.file, o.rec.Name())
		switch {
		case o.err != nil:
			failed++
			fmt.Printf("%s %s: %v\n", bad("FAIL"), label, o.err)
		case !o.res.ConsistentOutcome(o.rec.Outcome):
			failed++
			fmt.Printf("%s %s: ends in %s but records %s\n", bad("FAIL"), label, o.res.Status, o.rec.Outcome)
		case o.res.Status.IsTerminal():
			fmt.Printf("%s %s: %d plies, %s\n", ok("ok"), label, o.res.Plies, o.res.Status)
		default:
			fmt.Printf("%s %s: %d plies, %s (%s)\n", ok("ok"), label, o.res.Plies, warn("unfinished"), o.rec.Outcome)
		}
		if *showBoard && o.res.Final != nil {
			fmt.Println(renderBoard(o.res.Final))
			if len(o.res.SAN) > 0 {
				fmt.Println(movetext(o.res.SAN))
			}
		}
	}
	fmt.Printf("\n%d games, %d failed\n", len(outcomes), failed)
	return failed
}

// movetext numbers SAN moves as in a PGN body. Games from a set-up
// position with Black to move are numbered from 1 anyway.
func movetext(san []string) string {
	var sb strings.Builder
	for i, m := range san {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteByte(' ')
		sb.WriteString(m)
	}
	return sb.String()
}

func recordStats(outcomes []outcome) error {
	var (
		store *storage.Storage
		err   error
	)
	if *dbDir == "" {
		store, err = storage.NewStorage()
	} else {
		store, err = storage.Open(*dbDir)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		if err := store.RecordGame(storage.GameResult{Status: o.res.Status, Plies: o.res.Plies}); err != nil {
			return err
		}
	}
	stats, err := store.LoadStats()
	if err != nil {
		return err
	}
	fmt.Printf("statistics: %d games, %d white wins, %d black wins, %d draws, %d unfinished\n",
		stats.GamesPlayed, stats.WhiteWins, stats.BlackWins, stats.Draws, stats.Unfinished)
	return nil
}
