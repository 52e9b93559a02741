// Package snapshot persists store contents in Badger so a restarted process
// can serve the last loaded dataset without re-reading its seed sources.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

var (
	entityPrefix       = []byte("entity/")
	relationshipPrefix = []byte("relationship/")
	savedAtKey         = []byte("meta/saved_at")
	revisionKey        = []byte("meta/revision")
)

// ErrNoSnapshot is returned by Restore when nothing was saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// Info describes a saved snapshot.
type Info struct {
	Entities      int       `json:"entities"`
	Relationships int       `json:"relationships"`
	Revision      uint64    `json:"revision"`
	SavedAt       time.Time `json:"saved_at"`
}

// Snapshotter saves and restores store contents.
type Snapshotter struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) a snapshot database at path.
func Open(path string, logger *slog.Logger) (*Snapshotter, error) {
	return open(badger.DefaultOptions(path), logger)
}

// OpenInMemory opens a snapshot database that lives only in memory.
func OpenInMemory(logger *slog.Logger) (*Snapshotter, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Snapshotter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := badger.Open(opts.WithLogger(badgerLogger{logger}))
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	return &Snapshotter{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Snapshotter) Close() error {
	return s.db.Close()
}

// Save replaces the saved snapshot with the current contents of st.
func (s *Snapshotter) Save(ctx context.Context, st *store.Store) (*Info, error) {
	var (
		entities      []types.Entity
		relationships []types.Relationship
		revision      uint64
	)
	_ = st.Read(func(v *store.View) error {
		entities = v.Entities()
		relationships = v.Relationships()
		revision = v.Revision()
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.db.DropPrefix(entityPrefix, relationshipPrefix); err != nil {
		return nil, fmt.Errorf("clear snapshot: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode entity %s: %w", e.ID, err)
		}
		if err := wb.Set(key(entityPrefix, e.ID), data); err != nil {
			return nil, err
		}
	}
	for _, r := range relationships {
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode relationship %s: %w", r.ID, err)
		}
		if err := wb.Set(key(relationshipPrefix, r.ID), data); err != nil {
			return nil, err
		}
	}
	savedAt := time.Now().UTC()
	if err := wb.Set(savedAtKey, []byte(savedAt.Format(time.RFC3339Nano))); err != nil {
		return nil, err
	}
	if err := wb.Set(revisionKey, []byte(strconv.FormatUint(revision, 10))); err != nil {
		return nil, err
	}
	if err := wb.Flush(); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	info := &Info{
		Entities:      len(entities),
		Relationships: len(relationships),
		Revision:      revision,
		SavedAt:       savedAt,
	}
	s.logger.Info("Snapshot saved", "entities", info.Entities, "relationships", info.Relationships, "revision", revision)
	return info, nil
}

// Restore replaces the contents of st with the saved snapshot.
func (s *Snapshotter) Restore(ctx context.Context, st *store.Store) (*Info, error) {
	var (
		entities      []types.Entity
		relationships []types.Relationship
		info          Info
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(savedAtKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoSnapshot
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			info.SavedAt, err = time.Parse(time.RFC3339Nano, string(val))
			return err
		}); err != nil {
			return fmt.Errorf("read saved_at: %w", err)
		}
		if item, err := txn.Get(revisionKey); err == nil {
			_ = item.Value(func(val []byte) error {
				info.Revision, _ = strconv.ParseUint(string(val), 10, 64)
				return nil
			})
		}

		if err := scan(ctx, txn, entityPrefix, func(val []byte) error {
			var e types.Entity
			if err := json.Unmarshal(val, &e); err != nil {
				return fmt.Errorf("decode entity: %w", err)
			}
			entities = append(entities, e)
			return nil
		}); err != nil {
			return err
		}
		return scan(ctx, txn, relationshipPrefix, func(val []byte) error {
			var r types.Relationship
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("decode relationship: %w", err)
			}
			relationships = append(relationships, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	st.Replace(entities, relationships)
	info.Entities = len(entities)
	info.Relationships = len(relationships)
	s.logger.Info("Snapshot restored", "entities", info.Entities, "relationships", info.Relationships,
		"saved_at", info.SavedAt)
	return &info, nil
}

func scan(ctx context.Context, txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

func key(prefix []byte, id string) []byte {
	k := make([]byte, 0, len(prefix)+len(id))
	k = append(k, prefix...)
	return append(k, id...)
}

// badgerLogger routes Badger's internal logging through slog. Info and debug
// output is demoted to debug.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
