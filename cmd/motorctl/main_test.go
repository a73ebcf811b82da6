package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestKeyCommand(t *testing.T) {
	out, err := run(t, "key", "FourStroke 9.9 HP EFI ELH", "150 Pro XS XL", "???###")
	require.NoError(t, err)
	assert.Equal(t, "FOURSTROKE-9.9HP-EFI-ELH\nPROXS-150HP-EFI-XL\n(no key)\n", out)

	out, err = run(t, "--json", "key", "SeaPro 200 HP EXLPT")
	require.NoError(t, err)
	var keys map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &keys))
	assert.Equal(t, "SEAPRO-200HP-EFI-EXLPT", keys["SeaPro 200 HP EXLPT"])

	_, err = run(t, "key")
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", "Mercury Verado 300 HP DTS")
	require.NoError(t, err)
	assert.Contains(t, out, "VERADO-300HP-EFI-DTS")
	assert.Contains(t, out, "verado-300hp-efi-dts")
	assert.NotContains(t, out, "low confidence")

	out, err = run(t, "parse", "???###")
	require.NoError(t, err)
	assert.Contains(t, out, "low confidence")
}

func TestClassifyAndFormat(t *testing.T) {
	out, err := run(t, "classify", "Mercury 250 V8")
	require.NoError(t, err)
	assert.Equal(t, "Verado\n", out)

	out, err = run(t, "classify", "--hp", "50", "Mercury V8")
	require.NoError(t, err)
	assert.Equal(t, "FourStroke\n", out)

	out, err = run(t, "classify", "9.9", "-f", "Pro Kicker")
	require.NoError(t, err)
	assert.Equal(t, "ProKicker\n", out)

	out, err = run(t, "format", "8mh FourStroke", "9.9elhpt ProKicker")
	require.NoError(t, err)
	assert.Equal(t, "8 MH FourStroke\n9.9 ELHPT ProKicker\n", out)
}

func TestSyncAndExport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MOTORHUB_DB_PATH", filepath.Join(dir, "catalog.db"))
	t.Setenv("MOTORHUB_CONFIG", "")

	feed := filepath.Join(dir, "feed.csv")
	require.NoError(t, os.WriteFile(feed, []byte(
		"sku,description,stock\n1,FourStroke 9.9 HP EFI ELH,2\n2,Mercury Verado 300 HP DTS,0\n"), 0o644))

	out, err := run(t, "sync", "--csv", feed)
	require.NoError(t, err)
	assert.Contains(t, out, "upserted 2")

	out, err = run(t, "export", "-o", "-", "--in-stock")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "FOURSTROKE-9.9HP-EFI-ELH,"))

	path := filepath.Join(dir, "out", "all.csv")
	out, err = run(t, "export", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 motors")

	_, err = run(t, "export", "--family", "racing")
	assert.Error(t, err)
}
