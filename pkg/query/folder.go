package query

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// Folder lists entries whose file_path falls under folder/, excluding
// collection entries, delegating directly to the Backend since every
// implementation already applies the prefix-match/exclusion rule
// identically (spec.md §4.9).
func Folder(ctx context.Context, b backend.Backend, filter backend.FolderFilter) ([]model.Entry, int, error) {
	entries, err := b.ListEntriesInFolder(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := b.CountEntriesInFolder(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}
