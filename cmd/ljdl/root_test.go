package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ljdl/pkg/errors"
)

// isolate keeps config files and .env of the developer out of the tests
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, key := range []string{
		"LJDL_DIRECTORY", "LJDL_USER_AGENT", "LJDL_CONCURRENT_DOWNLOADS",
		"LJDL_REQUESTS_PER_MINUTE", "LJDL_CONTINUE_ON_ERROR", "LJDL_LOG_LEVEL", "LJDL_LOG_FILE",
	} {
		t.Setenv(key, "")
	}

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return dir
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCollectFlagsOnlyChanged(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-d", "out", "--concurrent", "3", "--no-progress", "-q"}))

	flags := collectFlags(cmd)
	assert.Equal(t, map[string]interface{}{
		"directory":  "out",
		"concurrent": 3,
		"progress":   false,
		"quiet":      true,
	}, flags)
}

func TestCollectFlagsDefaultsLeaveConfigAlone(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	assert.Empty(t, collectFlags(cmd))
}

func TestRunRejectsInvalidURL(t *testing.T) {
	dir := isolate(t)

	_, err := execute("-d", dir, "--log-level", "disabled", "https://example.com/photo/")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidURL))
}

func TestRunRejectsBadConfiguration(t *testing.T) {
	isolate(t)

	_, err := execute("--concurrent", "0", "https://alice.livejournal.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrent downloads must be positive")
}

func TestRunRequiresOneURL(t *testing.T) {
	isolate(t)

	_, err := execute()
	assert.Error(t, err)

	_, err = execute("https://a.livejournal.com/", "https://b.livejournal.com/")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute("--version")
	require.NoError(t, err)
	assert.Contains(t, out, "ljdl "+version)
}

func TestConfigInitShowValidate(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "ljdl.yaml")

	out, err := execute("config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created")
	assert.FileExists(t, path)

	_, err = execute("config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute("config", "init", "--config", path, "--force")
	assert.NoError(t, err)

	out, err = execute("config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "concurrent_downloads: 5")
	assert.Contains(t, out, "folder_prefix: lj")

	out, err = execute("config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
}

func TestConfigValidateReportsErrors(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download:\n  concurrent_downloads: 50\n"), 0644))

	_, err := execute("config", "validate", "--config", path)
	assert.ErrorContains(t, err, "should not exceed 20")
}
