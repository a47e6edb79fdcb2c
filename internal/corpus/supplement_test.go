package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSupplementPlainText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "Winter tires improve traction.")
	got, err := LoadSupplement(path)
	require.NoError(t, err)
	assert.Equal(t, "Winter tires improve traction.", got)
}

func TestLoadSupplementMarkdownStripsMarkup(t *testing.T) {
	content := "# Road Signs\n\nA **stop** sign is *octagonal*.\n\n- yield\n- merge\n"
	path := writeFile(t, t.TempDir(), "signs.md", content)

	got, err := LoadSupplement(path)
	require.NoError(t, err)

	assert.Contains(t, got, "Road Signs")
	assert.Contains(t, got, "stop")
	assert.Contains(t, got, "octagonal")
	assert.Contains(t, got, "yield")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "#")
}

func TestLoadSupplementUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scan.pdf", "%PDF-1.4")
	_, err := LoadSupplement(path)
	assert.ErrorContains(t, err, "unsupported supplement format")
}

func TestLoadSupplementMissingFile(t *testing.T) {
	_, err := LoadSupplement(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestLoadSupplementsSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.txt", "Keep a safe following distance.")
	missing := filepath.Join(dir, "missing.txt")
	empty := writeFile(t, dir, "b.txt", "   ")

	got := LoadSupplements([]string{good, missing, empty})
	assert.Equal(t, "Keep a safe following distance.", got)
}

func TestLoadSupplementsJoinsWithBlankLines(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "First document.")
	b := writeFile(t, dir, "b.txt", "Second document.")

	got := LoadSupplements([]string{a, b})
	assert.Equal(t, "First document.\n\nSecond document.", got)
}
