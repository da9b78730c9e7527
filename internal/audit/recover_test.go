package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverRoot(t *testing.T) {
	dir := t.TempDir()
	mirror := filepath.Join(dir, "a_com")
	require.NoError(t, os.MkdirAll(mirror, 0o750))

	logPath := filepath.Join(dir, "web_scraper.log")
	logContent := "12:00:01\tINFO\tStarting download for https://old.com/ into " + filepath.Join(dir, "old_com") + "\n" +
		"12:05:00\tINFO\tStarting download for https://a.com/ into " + mirror + "\n" +
		"12:05:01\tINFO\t[1/50] https://a.com/\n"
	require.NoError(t, os.WriteFile(logPath, []byte(logContent), 0o600))

	baseURL, root, err := RecoverRoot(logPath)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/", baseURL, "last occurrence wins")
	assert.Equal(t, mirror, root)
}

func TestRecoverRoot_NoRecord(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "web_scraper.log")
	require.NoError(t, os.WriteFile(logPath, []byte("nothing useful here\n"), 0o600))

	_, _, err := RecoverRoot(logPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no download record")
}

func TestRecoverRoot_FolderGone(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "web_scraper.log")
	missing := filepath.Join(dir, "vanished")
	require.NoError(t, os.WriteFile(logPath,
		[]byte("Starting download for https://a.com/ into "+missing+"\n"), 0o600))

	_, _, err := RecoverRoot(logPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRecoverRoot_MissingLog(t *testing.T) {
	_, _, err := RecoverRoot(filepath.Join(t.TempDir(), "absent.log"))
	require.Error(t, err)
}
