package columnarstore

import (
	"context"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
	"github.com/ternarybob/arbor"
)

// Store implements backend.Backend against an embedded badgerhold store.
type Store struct {
	db     *badgerhold.Store
	logger arbor.ILogger
}

// Config configures a new Store.
type Config struct {
	Dir    string
	Logger arbor.ILogger
}

func New(cfg Config) (*Store, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = cfg.Dir
	opts.ValueDir = cfg.Dir
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "open", Err: err}
	}
	return &Store{db: db, logger: cfg.Logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) RegisterKB(ctx context.Context, kb model.KB) error {
	d := kbDoc{
		Name:            kb.Name,
		KBType:          kb.KBType,
		Path:            kb.Path,
		RepoURL:         kb.RepoURL,
		ReadOnly:        kb.ReadOnly,
		LastIndexedUnix: unixOrZero(kb.LastIndexed),
	}
	if err := s.db.Upsert(kb.Name, &d); err != nil {
		return &backend.ErrStorage{Op: "register_kb", Err: err}
	}
	return nil
}

func (s *Store) UnregisterKB(ctx context.Context, kbName string) error {
	if err := s.db.Delete(kbName, &kbDoc{}); err != nil && err != badgerhold.ErrNotFound {
		return &backend.ErrStorage{Op: "unregister_kb", Err: err}
	}
	return nil
}

func (s *Store) GetKB(ctx context.Context, kbName string) (*model.KB, error) {
	var d kbDoc
	if err := s.db.Get(kbName, &d); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, &backend.ErrStorage{Op: "get_kb", Err: err}
	}
	count, err := s.db.Count(&doc{}, badgerhold.Where("KBName").Eq(kbName))
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_kb.count", Err: err}
	}
	kb := kbDocToModel(d)
	kb.EntryCount = int(count)
	return &kb, nil
}

func (s *Store) ListKBs(ctx context.Context) ([]model.KB, error) {
	var docs []kbDoc
	if err := s.db.Find(&docs, nil); err != nil {
		return nil, &backend.ErrStorage{Op: "list_kbs", Err: err}
	}
	out := make([]model.KB, 0, len(docs))
	for _, d := range docs {
		kb := kbDocToModel(d)
		count, err := s.db.Count(&doc{}, badgerhold.Where("KBName").Eq(d.Name))
		if err == nil {
			kb.EntryCount = int(count)
		}
		out = append(out, kb)
	}
	return out, nil
}

func kbDocToModel(d kbDoc) model.KB {
	return model.KB{
		Name:        d.Name,
		KBType:      d.KBType,
		Path:        d.Path,
		RepoURL:     d.RepoURL,
		ReadOnly:    d.ReadOnly,
		LastIndexed: timeOrZero(d.LastIndexedUnix),
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}
