package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)
	eng.SetDifficulty(Easy)

	res, err := eng.Search(context.Background(), pos)
	if err != nil {
		t.Fatal(err)
	}
	if res.Move == board.NoMove {
		t.Error("Search returned NoMove for starting position")
	}
	if !pos.GenerateLegalMoves().Contains(res.Move) {
		t.Errorf("Search returned illegal move %s", res.Move)
	}
	t.Logf("Best move: %s", res.Move)
}

func TestEngineRespectsMoveTime(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	var depths []int
	eng.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
	}

	start := time.Now()
	res, err := eng.SearchWithLimits(context.Background(), pos, SearchLimits{MoveTime: 300 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("search took %v with a 300ms limit", elapsed)
	}
	if res.Move == board.NoMove {
		t.Fatal("no move returned")
	}
	if len(depths) == 0 {
		t.Fatal("OnInfo never called")
	}
	for i, d := range depths {
		if d != i+1 {
			t.Errorf("iteration %d reported depth %d", i, d)
		}
	}
	if res.Depth != depths[len(depths)-1] {
		t.Errorf("result depth %d, last reported %d", res.Depth, depths[len(depths)-1])
	}
	if !pos.Equal(board.NewPosition()) {
		t.Error("search changed the position")
	}
}

func TestEngineStopKeepsLastIteration(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	done := make(chan struct{})
	var (
		res Result
		err error
	)
	go func() {
		defer close(done)
		res, err = eng.SearchWithLimits(context.Background(), pos, SearchLimits{Infinite: true})
	}()

	time.Sleep(200 * time.Millisecond)
	eng.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop")
	}
	if err != nil {
		t.Fatalf("stopped search returned %v", err)
	}
	if res.Move == board.NoMove || res.Depth < 1 {
		t.Errorf("stopped search returned %+v", res)
	}
}

func TestEngineParentCancel(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.SearchWithLimits(ctx, pos, SearchLimits{Depth: 3})
	if !errors.Is(err, ErrSearchCancelled) {
		t.Errorf("error = %v, want ErrSearchCancelled", err)
	}
	if !pos.Equal(board.NewPosition()) {
		t.Error("cancelled search changed the position")
	}
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
	puts    int
}

func (c *mapCache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *mapCache) Put(key string, e CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	c.puts++
	return nil
}

func TestEngineCache(t *testing.T) {
	pos := board.NewPosition()
	cache := &mapCache{entries: make(map[string]CacheEntry)}
	eng := NewEngine(1)
	eng.SetCache(cache)

	first, err := eng.SearchWithLimits(context.Background(), pos, SearchLimits{Depth: 3})
	if err != nil {
		t.Fatal(err)
	}
	if cache.puts != 1 {
		t.Fatalf("cache written %d times, want 1", cache.puts)
	}
	entry, ok := cache.entries[CacheKey("positional", pos)]
	if !ok || entry.Move != first.Move.String() || entry.Depth != 3 {
		t.Fatalf("cached %+v, searched %+v", entry, first)
	}

	second, err := eng.SearchWithLimits(context.Background(), pos, SearchLimits{Depth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if second.Move != first.Move || second.Nodes != 0 {
		t.Errorf("shallower request should be served from cache, got %+v", second)
	}

	if _, err := eng.SearchWithLimits(context.Background(), pos, SearchLimits{Depth: 4}); err != nil {
		t.Fatal(err)
	}
	if cache.puts != 2 {
		t.Errorf("deeper request should search and store, puts = %d", cache.puts)
	}
}

func TestEngineCacheKeyedByEvaluator(t *testing.T) {
	pos := board.NewPosition()
	cache := &mapCache{entries: make(map[string]CacheEntry)}
	eng := NewEngine(1)
	eng.SetCache(cache)
	limits := SearchLimits{Depth: 2}

	eng.SetEvaluator(Material)
	if _, err := eng.SearchWithLimits(context.Background(), pos, limits); err != nil {
		t.Fatal(err)
	}

	eng.SetEvaluator(Positional)
	got, err := eng.SearchWithLimits(context.Background(), pos, limits)
	if err != nil {
		t.Fatal(err)
	}
	if got.Nodes == 0 {
		t.Fatal("positional search was served the material analysis")
	}
	fresh := NewEngine(1)
	want, err := fresh.SearchWithLimits(context.Background(), pos, limits)
	if err != nil {
		t.Fatal(err)
	}
	if got.Move != want.Move || got.Score != want.Score {
		t.Errorf("after switching evaluator got %v (%d), want %v (%d)", got.Move, got.Score, want.Move, want.Score)
	}
	if _, ok := cache.entries[CacheKey("material", pos)]; !ok {
		t.Error("material analysis not stored under its own key")
	}
	if _, ok := cache.entries[CacheKey("positional", pos)]; !ok {
		t.Error("positional analysis not stored under its own key")
	}

	eng.SetEvaluator(EvaluatorFunc(EvaluateMaterial))
	puts := cache.puts
	res, err := eng.SearchWithLimits(context.Background(), pos, limits)
	if err != nil {
		t.Fatal(err)
	}
	if res.Nodes == 0 || cache.puts != puts {
		t.Errorf("unnamed evaluator used the cache: nodes %d, puts %d -> %d", res.Nodes, puts, cache.puts)
	}
}

func TestEvaluatorByName(t *testing.T) {
	for _, name := range []string{"material", "positional", "structure"} {
		t.Run(name, func(t *testing.T) {
			eval, ok := EvaluatorByName(name)
			if !ok {
				t.Fatalf("EvaluatorByName(%q) not found", name)
			}
			if got := EvaluatorName(eval); got != name {
				t.Errorf("EvaluatorName = %q, want %q", got, name)
			}
		})
	}
	if _, ok := EvaluatorByName("random"); ok {
		t.Error("unknown evaluator accepted")
	}
	if got := EvaluatorName(EvaluatorFunc(EvaluateMaterial)); got != "" {
		t.Errorf("plain EvaluatorFunc named %q", got)
	}
}

func TestDifficulty(t *testing.T) {
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		got, ok := ParseDifficulty(d.String())
		if !ok || got != d {
			t.Errorf("ParseDifficulty(%q) = %v, %v", d.String(), got, ok)
		}
		if _, ok := DifficultySettings[d]; !ok {
			t.Errorf("no settings for %v", d)
		}
	}
	if _, ok := ParseDifficulty("impossible"); ok {
		t.Error("unknown difficulty accepted")
	}
}

func TestTimeManager(t *testing.T) {
	var tm TimeManager

	tm.Init(SearchLimits{MoveTime: time.Second}, board.White, 0)
	if tm.OptimumTime() != time.Second || tm.MaximumTime() != time.Second {
		t.Errorf("movetime: %v/%v", tm.OptimumTime(), tm.MaximumTime())
	}

	tm.Init(SearchLimits{Depth: 5}, board.White, 0)
	if !tm.Unlimited() {
		t.Error("depth-only limits should be unlimited in time")
	}

	clock := Clock{Time: [2]time.Duration{60 * time.Second, 10 * time.Second}}
	tm.Init(SearchLimits{Clock: clock}, board.White, 0)
	if got, want := tm.OptimumTime(), 1020*time.Millisecond; got != want {
		t.Errorf("optimum = %v, want %v", got, want)
	}
	if got, want := tm.MaximumTime(), 5100*time.Millisecond; got != want {
		t.Errorf("maximum = %v, want %v", got, want)
	}

	tm.Init(SearchLimits{Clock: clock}, board.Black, 40)
	if tm.MaximumTime() > 8*time.Second {
		t.Errorf("maximum %v exceeds 80%% of black's clock", tm.MaximumTime())
	}
}
