package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvEntry is one stored key/value pair.
type kvEntry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

// kvMeta holds the single revision row bumped on every write. Watchers
// poll it instead of comparing values.
type kvMeta struct {
	ID       int   `gorm:"primaryKey"`
	Revision int64 `gorm:"column:revision"`
}

// SQLiteStore is the primary backend: one sqlite file, WAL mode, a single
// connection (same discipline narrabyte uses to avoid lock errors).
type SQLiteStore struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers []func()
	stopPoll chan struct{}
	pollOnce sync.Once

	pollInterval time.Duration
}

// OpenSQLite opens (and migrates) the sqlite store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&kvEntry{}, &kvMeta{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStore{
		db:           db,
		stopPoll:     make(chan struct{}),
		pollInterval: 300 * time.Millisecond,
	}, nil
}

// Get resolves the requested keys. Missing keys are absent from the map.
func (s *SQLiteStore) Get(keys []string) (map[string]json.RawMessage, error) {
	var rows []kvEntry
	if err := s.db.Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading keys: %w", err)
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = json.RawMessage(row.Value)
	}
	return out, nil
}

// Set upserts all values and bumps the revision in one transaction.
func (s *SQLiteStore) Set(values map[string]json.RawMessage) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for key, raw := range values {
			entry := kvEntry{Key: key, Value: string(raw), UpdatedAt: time.Now()}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&entry).Error; err != nil {
				return err
			}
		}
		meta := kvMeta{ID: 1, Revision: 1}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{"revision": gorm.Expr("revision + 1")}),
		}).Create(&meta).Error
	})
	if err != nil {
		return fmt.Errorf("writing keys: %w", err)
	}

	// Notify asynchronously so a watcher can call back into the store
	// without deadlocking the writer.
	s.mu.Lock()
	watchers := append([]func(){}, s.watchers...)
	s.mu.Unlock()
	for _, fn := range watchers {
		go fn()
	}
	return nil
}

// Watch registers onChange. Same-process writes fire it directly (on a
// separate goroutine); writes from other processes are detected by
// polling the revision row.
func (s *SQLiteStore) Watch(onChange func()) (func(), error) {
	s.mu.Lock()
	s.watchers = append(s.watchers, onChange)
	idx := len(s.watchers) - 1
	s.mu.Unlock()

	s.pollOnce.Do(func() { go s.pollLoop() })

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.watchers) {
			s.watchers[idx] = func() {}
		}
	}
	return stop, nil
}

func (s *SQLiteStore) pollLoop() {
	var last int64 = -1
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
		}

		var meta kvMeta
		if err := s.db.First(&meta, 1).Error; err != nil {
			continue
		}
		if last == -1 {
			last = meta.Revision
			continue
		}
		if meta.Revision != last {
			last = meta.Revision
			s.mu.Lock()
			watchers := append([]func(){}, s.watchers...)
			s.mu.Unlock()
			for _, fn := range watchers {
				fn()
			}
		}
	}
}

// Close stops the watcher poll and closes the database.
func (s *SQLiteStore) Close() error {
	select {
	case <-s.stopPoll:
	default:
		close(s.stopPoll)
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
