package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const templateRoot = "../sequence/testdata/templates"

type testEnv struct {
	dir    string
	config string
	db     string
}

// newTestEnv writes a config file pointing at a fresh database in a temp
// dir. Variables from the environment are cleared so they cannot leak in.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, name := range []string{"PROFILE", "CONFIG", "DB_PATH", "ADDR", "LOG_LEVEL"} {
		t.Setenv("MEMENTO_"+name, "")
		os.Unsetenv("MEMENTO_" + name)
	}
	t.Setenv("MEMENTO_PROFILE", "test")

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "memento.yaml"),
		db:     filepath.Join(dir, "memento.db"),
	}
	cfg := fmt.Sprintf(`profile: test
addr: "127.0.0.1:0"
db_path: %q
template_dir: %q
ui_log_path: %q
reconcile_interval_sec: 0
`, env.db, templateRoot, filepath.Join(dir, "ui.log"))
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o644))
	return env
}

// run executes the root command with --config prepended to args.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// writeFile writes content to name inside the env's temp dir.
func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
