// Package mdparse turns a Markdown-with-YAML-frontmatter file on disk into
// a model.Entry, the step the Index Manager's full reindex and incremental
// sync run over every file in a KB. Frontmatter shape is grounded on
// other_examples' markata-go Post struct (path/content/title/tags/date
// split), YAML decoding on yaml.v3 the way ternarybob-quaero loads its own
// config and document metadata.
package mdparse

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markramm/pyrite/pkg/model"
)

var frontmatterDelim = "---"

// frontmatter is the subset of YAML keys promoted to typed Entry columns;
// anything else flows into Metadata verbatim.
type frontmatter struct {
	ID         string         `yaml:"id"`
	Type       string         `yaml:"type"`
	Title      string         `yaml:"title"`
	Summary    string         `yaml:"summary"`
	Date       string         `yaml:"date"`
	Importance int            `yaml:"importance"`
	Status     string         `yaml:"status"`
	Location   string         `yaml:"location"`
	Tags       []string       `yaml:"tags"`
	Extra      map[string]any `yaml:",inline"`
}

// ParseFile splits path's content into frontmatter and body and builds an
// Entry for kbName. The ID defaults to the file's base name (without
// extension) when the frontmatter omits one.
func ParseFile(kbName, path string, content []byte) (*model.Entry, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("mdparse: %s: %w", path, err)
	}

	id := fm.ID
	if id == "" {
		base := filepath.Base(path)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	title := fm.Title
	if title == "" {
		title = id
	}

	entry, err := model.NewEntry(kbName, id, fm.Type, title)
	if err != nil {
		return nil, err
	}
	entry.FilePath = path
	entry.Body = body
	entry.Summary = fm.Summary
	entry.Status = fm.Status
	entry.Location = fm.Location
	entry.Importance = fm.Importance
	entry.Tags = model.NormalizeTags(fm.Tags)
	entry.Metadata = fm.Extra
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	if fm.Date != "" {
		if err := entry.SetDate(fm.Date); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// splitFrontmatter separates a leading "---\n...\n---\n" YAML block from
// the remaining Markdown body. A file with no frontmatter block is treated
// as body-only with an empty frontmatter.
func splitFrontmatter(content []byte) (frontmatter, string, error) {
	text := string(content)
	var fm frontmatter

	if !strings.HasPrefix(text, frontmatterDelim) {
		return fm, text, nil
	}

	rest := text[len(frontmatterDelim):]
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end == -1 {
		return fm, text, nil
	}

	yamlBlock := rest[:end]
	body := rest[end+len("\n"+frontmatterDelim):]
	body = strings.TrimPrefix(body, "\n")

	if strings.TrimSpace(yamlBlock) != "" {
		if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
			return fm, "", fmt.Errorf("invalid frontmatter: %w", err)
		}
	}
	return fm, body, nil
}
