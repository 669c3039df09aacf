package storage

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	t.Run("Defaults", func(t *testing.T) {
		prefs, err := s.LoadPreferences()
		if err != nil {
			t.Fatal(err)
		}
		if prefs.EngineDifficulty() != engine.Medium {
			t.Errorf("default difficulty = %v", prefs.EngineDifficulty())
		}
		if prefs.Depth != 4 || prefs.HashMB != 16 {
			t.Errorf("unexpected defaults %+v", prefs)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		prefs := DefaultPreferences()
		prefs.Difficulty = "hard"
		prefs.Depth = 6
		prefs.Evaluator = "material"
		if err := s.SavePreferences(prefs); err != nil {
			t.Fatal(err)
		}
		got, err := s.LoadPreferences()
		if err != nil {
			t.Fatal(err)
		}
		if got.EngineDifficulty() != engine.Hard || got.Depth != 6 {
			t.Errorf("loaded %+v", got)
		}
		if got.Evaluator != "material" {
			t.Error("evaluator not restored")
		}
		start := board.NewPosition()
		if got.EngineEvaluator().Evaluate(start) != engine.Material.Evaluate(start) {
			t.Error("material evaluator not selected")
		}
	})
}

func TestEngineEvaluator(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/P7/P7/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		want int
	}{
		{"material", engine.Material.Evaluate(pos)},
		{"positional", engine.Positional.Evaluate(pos)},
		{"structure", engine.NewStructureEvaluator(1).Evaluate(pos)},
		{"unknown", engine.Positional.Evaluate(pos)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := &Preferences{Evaluator: tt.name}
			if got := prefs.EngineEvaluator().Evaluate(pos); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)
	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("still first launch after marking")
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)
	results := []GameResult{
		{Status: board.Status{Kind: board.Checkmate, Loser: board.Black}, Plies: 7},
		{Status: board.Status{Kind: board.Checkmate, Loser: board.White}, Plies: 4},
		{Status: board.Status{Kind: board.Stalemate, Loser: board.NoColor}, Plies: 60},
		{Status: board.Status{Kind: board.Ongoing, Loser: board.NoColor}, Plies: 10},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 4 || stats.WhiteWins != 1 || stats.BlackWins != 1 || stats.Draws != 1 || stats.Unfinished != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.DrawsByKind["stalemate"] != 1 {
		t.Errorf("draws by kind = %v", stats.DrawsByKind)
	}
	if stats.TotalPlies != 81 {
		t.Errorf("total plies = %d", stats.TotalPlies)
	}
	if rate := stats.DecisiveRate(); rate != 50 {
		t.Errorf("decisive rate = %.1f, want 50", rate)
	}
	if NewGameStats().DecisiveRate() != 0 {
		t.Error("empty stats should have a zero rate")
	}
}

func TestAnalysisCache(t *testing.T) {
	s := openTest(t)
	key := board.NewPosition().KeyFEN()

	if _, ok := s.Get(key); ok {
		t.Fatal("empty cache hit")
	}
	if err := s.Put(key, engine.CacheEntry{Move: "e2e4", Score: 30, Depth: 5}); err != nil {
		t.Fatal(err)
	}
	// A shallower analysis must not overwrite a deeper one.
	if err := s.Put(key, engine.CacheEntry{Move: "d2d4", Score: 10, Depth: 2}); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get(key)
	if !ok || got.Move != "e2e4" || got.Depth != 5 {
		t.Errorf("Get = %+v, %v", got, ok)
	}
	hits, misses := s.CacheStats()
	if hits != 1 || misses != 1 {
		t.Errorf("hits/misses = %d/%d", hits, misses)
	}

	n, err := s.AnalysisCount()
	if err != nil || n != 1 {
		t.Errorf("AnalysisCount = %d, %v", n, err)
	}
	if err := s.ClearAnalyses(); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(key); ok {
		t.Error("analysis survived ClearAnalyses")
	}
}

func TestEngineUsesStorageCache(t *testing.T) {
	s := openTest(t)
	eng := engine.NewEngine(1)
	eng.SetCache(s)

	pos := board.NewPosition()
	first, err := eng.SearchWithLimits(context.Background(), pos, engine.SearchLimits{Depth: 2})
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := s.Get(engine.CacheKey("positional", pos))
	if !ok || entry.Move != first.Move.String() {
		t.Fatalf("stored %+v for %s", entry, first.Move)
	}
	again, err := eng.SearchWithLimits(context.Background(), pos, engine.SearchLimits{Depth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if again.Move != first.Move || again.Nodes != 0 {
		t.Errorf("second search not served from cache: %+v", again)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("k", engine.CacheEntry{Move: "g1f3", Depth: 3}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, ok := s.Get("k"); !ok || got.Move != "g1f3" {
		t.Errorf("after reopen: %+v, %v", got, ok)
	}
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if want := filepath.Join(base, appName); dataDir != want {
		t.Errorf("GetDataDir = %s, want %s", dataDir, want)
	}
	for _, get := range []func() (string, error){GetDatabaseDir, GetPGNDir} {
		dir, err := get()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("directory not created: %v", err)
		}
	}
}
