package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/export"
)

type fakeClipboard struct {
	mu     sync.Mutex
	text   []string
	images [][]byte
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = append(c.text, text)
	return nil
}

func (c *fakeClipboard) WriteImage(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, data)
	return nil
}

type cliResult struct {
	stdout string
	stderr string
	outDir string
	clip   *fakeClipboard
	err    error
}

// runCLI executes the root command with an empty project config and a
// private output directory.
func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	clip := &fakeClipboard{}
	orig := newClipboard
	newClipboard = func(*slog.Logger) export.Clipboard { return clip }
	t.Cleanup(func() { newClipboard = orig })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: warn\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(append(args, "--config", cfgPath, "--out", outDir))
	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), outDir: outDir, clip: clip, err: err}
}

func TestCategoriesCmd(t *testing.T) {
	res := runCLI(t, "categories")
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, []string{"Base", "4"}, strings.Fields(lines[0]))
}

func TestCategoriesCmd_JSON(t *testing.T) {
	res := runCLI(t, "categories", "--json")
	require.NoError(t, res.err)

	var cats []catalog.CategoryCount
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cats))
	require.NotEmpty(t, cats)
	assert.Equal(t, "Base", cats[0].Name)
	assert.Equal(t, 4, cats[0].Count)
}

func TestSearchCmd(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "query",
			args:     []string{"search", "one"},
			contains: []string{"add-one", "reduce-one", "check-one", "close-one"},
		},
		{
			name:     "category",
			args:     []string{"search", "--category", "Office"},
			contains: []string{"mail  Mail  [Office]"},
		},
		{
			name:     "limit",
			args:     []string{"search", "one", "--limit", "2"},
			contains: []string{"2 of 4 icons shown"},
		},
		{
			name:     "no match",
			args:     []string{"search", "zebra"},
			contains: []string{"No icons found."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.args...)
			require.NoError(t, res.err)
			for _, want := range tt.contains {
				assert.Contains(t, res.stdout, want)
			}
		})
	}
}

func TestSearchCmd_JSON(t *testing.T) {
	res := runCLI(t, "search", "one", "--json")
	require.NoError(t, res.err)

	var icons []catalog.Icon
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &icons))
	names := make([]string, len(icons))
	for i, icon := range icons {
		names[i] = icon.Name
	}
	assert.Equal(t, []string{"add-one", "reduce-one", "check-one", "close-one"}, names)
}

func TestSearchCmd_RejectsAllCategory(t *testing.T) {
	res := runCLI(t, "search", "--category", "all")
	assert.Error(t, res.err)
}

func TestShowCmd(t *testing.T) {
	res := runCLI(t, "show", "home")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "home  (Home)  [Build]")
	assert.Contains(t, res.stdout, "house, main page")
	assert.Contains(t, res.stdout, `import { Home } from "@icon-park/react"`)
	assert.Contains(t, res.stdout, `import { Home } from "@icon-park/vue-next"`)
	assert.Contains(t, res.stdout, "Source  available")
}

func TestShowCmd_UnknownSuggests(t *testing.T) {
	res := runCLI(t, "show", "hom")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "did you mean")
	assert.Contains(t, res.err.Error(), "home")
}

func TestExportCmd_SVG(t *testing.T) {
	res := runCLI(t, "export", "home", "mail", "--size", "24")
	require.NoError(t, res.err)

	for _, name := range []string{"home.svg", "mail.svg"} {
		path := filepath.Join(res.outDir, name)
		assert.Contains(t, res.stdout, path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "<?xml"))
		assert.Contains(t, string(data), `width="24"`)
	}
}

func TestExportCmd_PNG(t *testing.T) {
	res := runCLI(t, "export", "star", "--format", "png", "--png-size", "64")
	require.NoError(t, res.err)

	f, err := os.Open(filepath.Join(res.outDir, "star.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestExportCmd_PartialFailure(t *testing.T) {
	res := runCLI(t, "export", "home", "nope")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "1 of 2 exports failed")
	assert.Contains(t, res.stderr, "! nope:")
	assert.FileExists(t, filepath.Join(res.outDir, "home.svg"))
}

func TestExportCmd_Clipboard(t *testing.T) {
	res := runCLI(t, "export", "lock", "--clipboard")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "SVG copied to clipboard")
	require.Len(t, res.clip.text, 1)
	assert.Contains(t, res.clip.text[0], "<svg")
	assert.NoFileExists(t, filepath.Join(res.outDir, "lock.svg"))

	res = runCLI(t, "export", "lock", "--clipboard", "--format", "png")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "PNG copied to clipboard")
	require.Len(t, res.clip.images, 1)
}

func TestExportCmd_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"clipboard with two icons", []string{"export", "home", "mail", "--clipboard"}},
		{"snippet format", []string{"export", "home", "--format", "snippet"}},
		{"unknown format", []string{"export", "home", "--format", "gif"}},
		{"png size out of range", []string{"export", "home", "--format", "png", "--png-size", "5000"}},
		{"bad theme", []string{"export", "home", "--theme", "neon"}},
		{"bad color", []string{"export", "home", "--stroke-color", "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, runCLI(t, tt.args...).err)
		})
	}
}

func TestSnippetCmd(t *testing.T) {
	res := runCLI(t, "snippet", "home", "--theme", "filled", "--size", "24")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "import { Home } from '@icon-park/react'")
	assert.Contains(t, res.stdout, `theme="filled"`)
	assert.Contains(t, res.stdout, `size="24"`)
}

func TestSnippetCmd_VueVerify(t *testing.T) {
	res := runCLI(t, "snippet", "check-one", "--framework", "vue", "--verify")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "<template>")
	assert.Contains(t, res.stderr, "verified: <CheckOne>")
}

func TestSnippetCmd_Copy(t *testing.T) {
	res := runCLI(t, "snippet", "mail", "--copy")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "React code copied to clipboard")
	require.Len(t, res.clip.text, 1)
	assert.Contains(t, res.clip.text[0], "<Mail")
}

func TestSnippetCmd_Errors(t *testing.T) {
	assert.Error(t, runCLI(t, "snippet", "home", "--framework", "svelte").err)
	assert.ErrorContains(t, runCLI(t, "snippet", "nope").err, "unknown icon")
}

func TestVersionCmd(t *testing.T) {
	res := runCLI(t, "version")
	require.NoError(t, res.err)
	assert.Equal(t, "iconpark "+version+"\n", res.stdout)
}

func TestLaunchSpec(t *testing.T) {
	a := &app{cfg: defaultProjectConfig()}
	assert.Equal(t, launchSpec{Command: "iconpark", Args: []string{"serve"}}, a.launchSpec())

	a.cfg.IconsDir = "/srv/icons"
	spec := a.launchSpec()
	assert.Equal(t, []string{"serve", "--icons", "/srv/icons", "--watch"}, spec.Args)
}
