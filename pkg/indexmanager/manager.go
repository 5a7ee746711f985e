// Package indexmanager orchestrates reindexing, incremental sync, the
// hook lifecycle, and best-effort auto-embedding on top of a
// backend.Backend (spec.md §4.8). It owns no storage of its own.
package indexmanager

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/blocks"
	"github.com/markramm/pyrite/pkg/mdparse"
	"github.com/markramm/pyrite/pkg/model"
)

// EmbeddingProvider computes a vector for a chunk of text. Auto-embed is
// best-effort: a provider error is logged and the upsert still succeeds
// (spec.md §4.8).
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) (model.Embedding, error)
}

// Manager wires a Backend, a plugin Hooks set, and an optional
// EmbeddingProvider into the save/delete/reindex operations spec.md §4.8
// names.
type Manager struct {
	Backend  backend.Backend
	Hooks    *Hooks
	Embedder EmbeddingProvider
	Logger   arbor.ILogger
}

// New constructs a Manager. hooks and embedder may be nil.
func New(b backend.Backend, hooks *Hooks, embedder EmbeddingProvider, logger arbor.ILogger) *Manager {
	if hooks == nil {
		hooks = &Hooks{}
	}
	return &Manager{Backend: b, Hooks: hooks, Embedder: embedder, Logger: logger}
}

// Save runs the before_save/after_save hook lifecycle around a single
// entry upsert, deriving its Blocks first. A before_save hook error
// aborts the operation and is reported as backend.ErrPlugin; an
// after_save hook that panics is recovered and logged.
func (m *Manager) Save(ctx context.Context, entry *model.Entry) error {
	for _, hook := range m.Hooks.BeforeSave {
		if err := hook(entry); err != nil {
			return &backend.ErrPlugin{Hook: "before_save", Err: err}
		}
	}

	entry.Blocks = blocks.Extract(entry.Body)

	if err := m.Backend.UpsertEntry(ctx, entry); err != nil {
		return err
	}

	for _, hook := range m.Hooks.AfterSave {
		func() {
			defer func() {
				if r := recover(); r != nil && m.Logger != nil {
					m.Logger.Error().Str("kb", entry.KBName).Str("id", entry.ID).Msg(fmt.Sprintf("after_save hook panicked: %v", r))
				}
			}()
			hook(entry)
		}()
	}

	m.autoEmbed(ctx, entry)
	return nil
}

// autoEmbed computes and stores a vector for entry when a provider is
// configured. The Backend interface exposes embedding presence only at
// KB granularity (HasEmbeddings), not per entry, so this recomputes and
// overwrites the vector on every save rather than tracking per-entry
// staleness — simpler than it is efficient, acceptable because embedding
// is already a best-effort, failure-tolerant path. Failures are logged,
// never returned, per spec.md §4.8.
func (m *Manager) autoEmbed(ctx context.Context, entry *model.Entry) {
	if m.Embedder == nil {
		return
	}

	text := strings.TrimSpace(entry.Title + "\n\n" + entry.Summary + "\n\n" + entry.Body)
	if text == "" {
		return
	}
	vec, err := m.Embedder.Embed(ctx, text)
	if err != nil {
		m.logWarn(entry.KBName, entry.ID, "auto_embed: provider failed", err)
		return
	}
	if _, err := m.Backend.UpsertEmbedding(ctx, entry.ID, entry.KBName, vec); err != nil {
		m.logWarn(entry.KBName, entry.ID, "auto_embed: store failed", err)
	}
}

func (m *Manager) logWarn(kbName, id, msg string, err error) {
	if m.Logger == nil {
		return
	}
	m.Logger.Warn().Str("kb", kbName).Str("id", id).Err(err).Msg(msg)
}

// Delete runs the before_delete/after_delete hook lifecycle around a
// single entry deletion.
func (m *Manager) Delete(ctx context.Context, id, kbName string) (bool, error) {
	for _, hook := range m.Hooks.BeforeDelete {
		if err := hook(id, kbName); err != nil {
			return false, &backend.ErrPlugin{Hook: "before_delete", Err: err}
		}
	}

	removed, err := m.Backend.DeleteEntry(ctx, id, kbName)
	if err != nil {
		return false, err
	}

	for _, hook := range m.Hooks.AfterDelete {
		hook(id, kbName)
	}
	return removed, nil
}

// IndexStats reports the outcome of a reindex or incremental sync.
type IndexStats struct {
	Added             int
	Updated           int
	Removed           int
	Errors            int
	EmbeddingCoverage float64
}

// FullReindex walks root for .md files under kbName, parses and saves each
// one, then updates the KB's last_indexed timestamp.
func (m *Manager) FullReindex(ctx context.Context, kbName, root string) (IndexStats, error) {
	var stats IndexStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			stats.Errors++
			m.logWarn(kbName, path, "reindex: read failed", readErr)
			return nil
		}
		entry, parseErr := mdparse.ParseFile(kbName, path, content)
		if parseErr != nil {
			stats.Errors++
			m.logWarn(kbName, path, "reindex: parse failed", parseErr)
			return nil
		}
		if saveErr := m.Save(ctx, entry); saveErr != nil {
			stats.Errors++
			m.logWarn(kbName, entry.ID, "reindex: save failed", saveErr)
			return nil
		}
		stats.Added++
		return nil
	})
	if err != nil {
		return stats, err
	}

	if err := m.touchLastIndexed(ctx, kbName); err != nil {
		return stats, err
	}
	if m.Logger != nil {
		m.Logger.Info().Str("kb", kbName).Msg("reindexed")
	}

	cov, covErr := m.Backend.EmbeddingStats(ctx, kbName)
	if covErr == nil {
		stats.EmbeddingCoverage = cov.Coverage
	}
	return stats, nil
}

// listAllEntries pages through ListEntries, since a zero Limit is
// interpreted by every Backend as the default page size (50) rather than
// "unlimited" (spec.md §4.4's `limit` arguments are always a hard cap).
func (m *Manager) listAllEntries(ctx context.Context, kbName string) ([]model.Entry, error) {
	const pageSize = 200
	var out []model.Entry
	offset := 0
	for {
		page, err := m.Backend.ListEntries(ctx, backend.ListFilter{KBName: kbName, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
		offset += pageSize
	}
}

func (m *Manager) touchLastIndexed(ctx context.Context, kbName string) error {
	kb, err := m.Backend.GetKB(ctx, kbName)
	if err != nil {
		return err
	}
	if kb == nil {
		return &backend.ErrKBNotFound{KBName: kbName}
	}
	kb.LastIndexed = time.Now().UTC()
	return m.Backend.RegisterKB(ctx, *kb)
}

// Sync compares on-disk modification times against each tracked entry's
// indexed_at, upserting changed files and removing entries whose source
// file is gone (spec.md §4.8 incremental sync).
func (m *Manager) Sync(ctx context.Context, kbName, root string) (IndexStats, error) {
	var stats IndexStats

	existing, err := m.listAllEntries(ctx, kbName)
	if err != nil {
		return stats, err
	}
	indexedAt := make(map[string]time.Time, len(existing))
	for _, e := range existing {
		indexedAt[e.ID] = e.IndexedAt
	}
	seen := make(map[string]bool, len(existing))

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			stats.Errors++
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			stats.Errors++
			m.logWarn(kbName, path, "sync: read failed", readErr)
			return nil
		}
		entry, parseErr := mdparse.ParseFile(kbName, path, content)
		if parseErr != nil {
			stats.Errors++
			m.logWarn(kbName, path, "sync: parse failed", parseErr)
			return nil
		}
		seen[entry.ID] = true

		prevIndexed, tracked := indexedAt[entry.ID]
		if tracked && !info.ModTime().After(prevIndexed) {
			return nil
		}
		if saveErr := m.Save(ctx, entry); saveErr != nil {
			stats.Errors++
			m.logWarn(kbName, entry.ID, "sync: save failed", saveErr)
			return nil
		}
		if tracked {
			stats.Updated++
		} else {
			stats.Added++
		}
		return nil
	})
	if walkErr != nil {
		return stats, walkErr
	}

	for id := range indexedAt {
		if seen[id] {
			continue
		}
		if _, err := m.Delete(ctx, id, kbName); err != nil {
			stats.Errors++
			m.logWarn(kbName, id, "sync: delete failed", err)
			continue
		}
		stats.Removed++
	}

	if err := m.touchLastIndexed(ctx, kbName); err != nil {
		return stats, err
	}
	return stats, nil
}
