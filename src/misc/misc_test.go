package misc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequiredFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("reads", "r", "", "")
	cmd.Flags().IntP("threads", "t", 8, "")
	require.NoError(t, cmd.MarkFlagRequired("reads"))
	assert.EqualError(t, CheckRequiredFlags(cmd.Flags()), "Required flag `reads` has not been set")
	require.NoError(t, cmd.Flags().Parse([]string{"-r", "reads.fq"}))
	assert.NoError(t, CheckRequiredFlags(cmd.Flags()))
}

func TestChecks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0644))
	assert.NoError(t, CheckDir(dir))
	assert.Error(t, CheckDir(""))
	assert.Error(t, CheckDir(filepath.Join(dir, "missing")))
	assert.NoError(t, CheckFile(file))
	assert.Error(t, CheckFile(filepath.Join(dir, "missing.txt")))
}

func TestStartLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "stash.log")
	fh, err := StartLogging(logFile)
	require.NoError(t, err)
	_, err = fh.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Contains(t, PrintMemUsage(), "Heap Allocations")
}
