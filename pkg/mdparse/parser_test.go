package mdparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFile_WithFrontmatter(t *testing.T) {
	content := []byte(`---
title: Hello World
type: note
date: 2024-03-01
tags: [intro, demo]
importance: 5
custom_field: wat
---
# Hello World

This is the body.
`)
	entry, err := ParseFile("kb1", "notes/hello.md", content)
	require.NoError(t, err)
	require.Equal(t, "hello", entry.ID)
	require.Equal(t, "Hello World", entry.Title)
	require.Equal(t, "note", entry.EntryType)
	require.Equal(t, "2024-03-01", entry.Date)
	require.Equal(t, 5, entry.Importance)
	require.ElementsMatch(t, []string{"intro", "demo"}, entry.Tags)
	require.Contains(t, entry.Body, "This is the body.")
	require.Equal(t, "wat", entry.Metadata["custom_field"])
}

func TestParseFile_NoFrontmatter(t *testing.T) {
	entry, err := ParseFile("kb1", "notes/plain.md", []byte("just text\n"))
	require.NoError(t, err)
	require.Equal(t, "plain", entry.ID)
	require.Equal(t, "plain", entry.Title)
	require.Contains(t, entry.Body, "just text")
}

func TestParseFile_ExplicitID(t *testing.T) {
	content := []byte("---\nid: custom-id\ntitle: T\n---\nbody\n")
	entry, err := ParseFile("kb1", "notes/anything.md", content)
	require.NoError(t, err)
	require.Equal(t, "custom-id", entry.ID)
}
