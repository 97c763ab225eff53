package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// run executes the root command with a throwaway config and returns what
// was written to stdout. Logs go to stderr and are discarded.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		searchURLs, searchGitHubs, searchJSON = nil, nil, false
		cfgFile, verbose = "", false
		serveAddr, serveWatchDir = "", ""
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	cfg := filepath.Join(t.TempDir(), "linesearch.yaml")
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
