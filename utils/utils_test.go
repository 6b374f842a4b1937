package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report.pdf", "report.pdf"},
		{"Q2 Report (final).pdf", "Q2_Report__final_.pdf"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"año_2026.pdf", "a_o_2026.pdf"},
		{"already-safe_name.PDF", "already-safe_name.PDF"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
	}
}

func TestListPDFFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.PDF", "notes.txt", "c.pdf.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0755))

	paths, err := ListPDFFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.PDF"),
	}, paths)
}

func TestListPDFFilesMissingDir(t *testing.T) {
	_, err := ListPDFFiles(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), CalculateBackoff(time.Second, 0))
	assert.Equal(t, time.Duration(0), CalculateBackoff(time.Second, -1))

	for attempt := 1; attempt <= 5; attempt++ {
		for i := 0; i < 20; i++ {
			d := CalculateBackoff(100*time.Millisecond, attempt)
			assert.Greater(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, 40*time.Second)
		}
	}
}

func TestCalculateBackoffCapped(t *testing.T) {
	// Large attempts stay within the 30s cap plus jitter.
	for i := 0; i < 20; i++ {
		d := CalculateBackoff(2*time.Second, 100)
		assert.GreaterOrEqual(t, d, 22*time.Second)
		assert.LessOrEqual(t, d, 38*time.Second)
	}
}
