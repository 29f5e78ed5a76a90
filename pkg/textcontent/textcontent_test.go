package textcontent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractMarkdownHeading(t *testing.T) {
	path := writeFile(t, "notes.md", "# Project Roadmap 2024\n\nSome body text.\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Project Roadmap 2024", got)
}

func TestExtractMarkdownFrontmatterTitle(t *testing.T) {
	path := writeFile(t, "post.md", "---\ntitle: \"Deploying with Confidence\"\ndate: 2024-01-01\n---\n\n# Introduction\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Deploying with Confidence", got)
}

func TestExtractMarkdownSkipsGenericHeadings(t *testing.T) {
	path := writeFile(t, "doc.md", "# Introduction\n\n## Deployment Checklist\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Deployment Checklist", got)
}

func TestExtractCSVHeaders(t *testing.T) {
	path := writeFile(t, "data.csv", "id,name,amount,created_at\n1,Coffee Beans,12.50,2024-01-01\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "name", got)
}

func TestExtractCSVSkipsNumericColumns(t *testing.T) {
	path := writeFile(t, "data.csv", "region,amount,quantity\nEurope,12.5,3\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "region", got)
}

func TestExtractPlainTextFirstLine(t *testing.T) {
	path := writeFile(t, "readme.txt", "Meeting notes for the quarterly review\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Meeting notes for the quarterly review", got)
}

func TestExtractPlainTextEmpty(t *testing.T) {
	path := writeFile(t, "empty.txt", "\n\n\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractJSONTitle(t *testing.T) {
	path := writeFile(t, "app.json", `{"version": 2, "title": "Inventory Export"}`)

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Inventory Export", got)
}

func TestExtractJSONNestedName(t *testing.T) {
	path := writeFile(t, "pkg.json", `{"package": {"name": "billing-service"}}`)

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "billing-service", got)
}

func TestExtractYAMLName(t *testing.T) {
	path := writeFile(t, "deploy.yaml", "apiVersion: v1\nkind: Service\nname: payments-gateway\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "payments-gateway", got)
}

func TestExtractHTMLTitle(t *testing.T) {
	path := writeFile(t, "page.html", `<html><head><title>Company Picnic 2024</title></head><body><p>lots of text</p></body></html>`)

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Company Picnic 2024", got)
}

func TestExtractHTMLBodyFallback(t *testing.T) {
	path := writeFile(t, "page.html", `<html><body><h1>Migration Runbook</h1></body></html>`)

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Migration Runbook", got)
}

func TestExtractSourceCodeLineComments(t *testing.T) {
	path := writeFile(t, "rotate.py", "#!/usr/bin/env python3\n# Fetch and rotate access logs\nimport os\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Fetch and rotate access logs", got)
}

func TestExtractSourceCodeGoDocComment(t *testing.T) {
	path := writeFile(t, "main.go", "// Command backup snapshots the photo library\n// to the NAS.\npackage main\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Command backup snapshots the photo library to the NAS.", got)
}

func TestExtractSourceCodeBlockComment(t *testing.T) {
	path := writeFile(t, "util.c", "/*\n * Ring buffer helpers for the audio pipeline\n */\n#include <stdio.h>\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Ring buffer helpers for the audio pipeline", got)
}

func TestExtractSourceCodeNoLeadingComment(t *testing.T) {
	path := writeFile(t, "plain.go", "package main\n\nfunc main() {}\n")

	got, err := Extract(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
