package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// Storage keys
const (
	keyPreferences    = "preferences"
	keyStats          = "stats"
	keyFirstLaunch    = "first_launch"
	analysisKeyPrefix = "analysis/"
)

// Preferences holds engine settings shared by the binaries.
type Preferences struct {
	Difficulty string    `json:"difficulty"`
	Depth      int       `json:"depth"`
	HashMB     int       `json:"hash_mb"`
	Evaluator  string    `json:"evaluator"`
	LastUsed   time.Time `json:"last_used"`
}

// DefaultPreferences returns the settings used before anything is saved.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Difficulty: engine.Medium.String(),
		Depth:      4,
		HashMB:     16,
		Evaluator:  "positional",
		LastUsed:   time.Now(),
	}
}

// EngineDifficulty parses the stored difficulty, falling back to medium.
func (p *Preferences) EngineDifficulty() engine.Difficulty {
	d, _ := engine.ParseDifficulty(p.Difficulty)
	return d
}

// EngineEvaluator maps the stored evaluator name to an Evaluator.
func (p *Preferences) EngineEvaluator() engine.Evaluator {
	if eval, ok := engine.EvaluatorByName(p.Evaluator); ok {
		return eval
	}
	return engine.Positional
}

// GameStats counts finished games by outcome.
type GameStats struct {
	GamesPlayed int            `json:"games_played"`
	WhiteWins   int            `json:"white_wins"`
	BlackWins   int            `json:"black_wins"`
	Draws       int            `json:"draws"`
	DrawsByKind map[string]int `json:"draws_by_kind"`
	Unfinished  int            `json:"unfinished"`
	TotalPlies  int            `json:"total_plies"`
}

// NewGameStats returns empty statistics.
func NewGameStats() *GameStats {
	return &GameStats{DrawsByKind: make(map[string]int)}
}

// GameResult describes one finished or abandoned game.
type GameResult struct {
	Status board.Status
	Plies  int
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB

	analysisTTL time.Duration
	hits        atomic.Uint64
	misses      atomic.Uint64
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens or creates a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})
	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves prefs, stamping LastUsed.
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads preferences, returning defaults if none are saved.
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	_, err := s.getJSON(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.getJSON(keyStats, stats)
	if stats.DrawsByKind == nil {
		stats.DrawsByKind = make(map[string]int)
	}
	return stats, err
}

// RecordGame adds result to the stored statistics.
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.Add(result)
	return s.SaveStats(stats)
}

// Add counts one game.
func (gs *GameStats) Add(result GameResult) {
	gs.GamesPlayed++
	gs.TotalPlies += result.Plies
	switch result.Status.Kind {
	case board.Checkmate:
		if result.Status.Loser == board.Black {
			gs.WhiteWins++
		} else {
			gs.BlackWins++
		}
	case board.Ongoing:
		gs.Unfinished++
	default:
		gs.Draws++
		gs.DrawsByKind[result.Status.Kind.String()]++
	}
}

// DecisiveRate returns the percentage of games that ended in mate.
func (gs *GameStats) DecisiveRate() float64 {
	if gs.GamesPlayed == 0 {
		return 0
	}
	return float64(gs.WhiteWins+gs.BlackWins) / float64(gs.GamesPlayed) * 100
}

// SetAnalysisTTL makes analyses written afterwards expire after ttl. Zero
// keeps them forever.
func (s *Storage) SetAnalysisTTL(ttl time.Duration) {
	s.analysisTTL = ttl
}

// Get implements engine.Cache.
func (s *Storage) Get(key string) (engine.CacheEntry, bool) {
	var e engine.CacheEntry
	found, err := s.getJSON(analysisKeyPrefix+key, &e)
	if err != nil || !found {
		s.misses.Add(1)
		return engine.CacheEntry{}, false
	}
	s.hits.Add(1)
	return e, true
}

// Put implements engine.Cache. A deeper stored analysis is kept.
func (s *Storage) Put(key string, e engine.CacheEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	k := []byte(analysisKeyPrefix + key)
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		switch {
		case err == nil:
			var old engine.CacheEntry
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &old) }); err == nil && old.Depth > e.Depth {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		entry := badger.NewEntry(k, data)
		if s.analysisTTL > 0 {
			entry = entry.WithTTL(s.analysisTTL)
		}
		return txn.SetEntry(entry)
	})
}

// CacheStats returns analysis cache hits and misses since Open.
func (s *Storage) CacheStats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}

// AnalysisCount counts stored analyses.
func (s *Storage) AnalysisCount() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(analysisKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// ClearAnalyses deletes every stored analysis.
func (s *Storage) ClearAnalyses() error {
	return s.db.DropPrefix([]byte(analysisKeyPrefix))
}

func (s *Storage) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON decodes the value at key into v and reports whether it existed.
func (s *Storage) getJSON(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}
