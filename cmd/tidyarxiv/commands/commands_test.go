package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tidyarxiv/internal/config"
	"git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
)

const fakeLatex = `printf '%%PDF-fake' > main.pdf; printf 'bbl' > main.bbl`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var cli CLI
	parser, err := kong.New(&cli, kong.Name("tidyarxiv"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Context: context.Background(), Out: &out}, &cli)
	return out.String(), err
}

func writeProject(t *testing.T, cfg map[string]any) (root, cfgPath string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.tex"), []byte("Hello % hidden\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "refs.bib"), []byte("@misc{a}\n"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "out"), 0o750))

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	cfgPath = filepath.Join(root, config.DefaultName)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o600))
	return root, cfgPath
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv(EnvLogLevel, "WARN")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(false))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true), "--verbose wins")

	t.Setenv(EnvLogLevel, "error")
	assert.Equal(t, slog.LevelError, parseLogLevel(false))
}

func TestBuildIsDefaultCommand(t *testing.T) {
	root, cfgPath := writeProject(t, map[string]any{
		"outdir":        "out",
		"build_command": []string{"sh", "-c", fakeLatex},
	})

	out, err := runCLI(t, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Tarball created: ")
	assert.Contains(t, out, "PDF created: ")
	assert.Contains(t, out, "Build log saved: ")

	files := listDir(t, filepath.Join(root, "out"))
	require.Len(t, files, 3)
	for _, f := range files {
		assert.Regexp(t, `^main_\d{8}_\d{6}\.(tar\.gz|pdf|log)$`, f)
	}
}

func TestBuildFailureMapsToBuildExitCode(t *testing.T) {
	root, cfgPath := writeProject(t, map[string]any{
		"outdir":        "out",
		"build_command": "sh -c 'echo broken >&2; exit 1'",
	})

	_, err := runCLI(t, "build", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, "Error building TeX. See build.log for details.", err.Error())
	assert.Equal(t, errors.ExitBuild, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Equal(t, []string{"build.log"}, listDir(t, filepath.Join(root, "out")))
}

func TestBuildMissingConfig(t *testing.T) {
	_, err := runCLI(t, "--config", filepath.Join(t.TempDir(), config.DefaultName))
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfig, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, err.Error(), `No "tidyarxiv.cfg" file found.`)
}

func TestConfigNameFromEnvironment(t *testing.T) {
	_, cfgPath := writeProject(t, map[string]any{"outdir": "missing"})
	t.Setenv(config.EnvConfigName, cfgPath)

	_, err := runCLI(t, "files")
	require.NoError(t, err, "files does not require outdir")

	_, err = runCLI(t, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Output directory "`)
}

func TestInitThenFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultName)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.tex"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refs.bib"), []byte("x"), 0o600))

	out, err := runCLI(t, "init", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")

	_, err = runCLI(t, "init", "--config", cfgPath)
	require.Error(t, err, "init refuses to overwrite")

	out, err = runCLI(t, "files", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Import (2 files)")
	assert.Contains(t, out, "Filter (1 files)")
	assert.Contains(t, out, "Publish (source tree) (1 files)")
	assert.Contains(t, out, "\tmain.tex\n")
}

func TestHistory(t *testing.T) {
	_, cfgPath := writeProject(t, map[string]any{
		"outdir":        "out",
		"build_command": []string{"sh", "-c", fakeLatex},
		"history_db":    "history.db",
		"metrics_file":  "out/tidyarxiv.prom",
	})

	_, err := runCLI(t, "build", "--config", cfgPath)
	require.NoError(t, err)

	out, err := runCLI(t, "history", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "success")

	metrics, err := os.ReadFile(filepath.Join(filepath.Dir(cfgPath), "out", "tidyarxiv.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `tidyarxiv_build_outcomes_total{outcome="success"} 1`)
}

func TestHistoryRequiresDatabase(t *testing.T) {
	_, cfgPath := writeProject(t, map[string]any{})
	_, err := runCLI(t, "history", "--config", cfgPath)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRelevantPaths(t *testing.T) {
	root := t.TempDir()
	cfg := config.Resolve(config.File{MetadataFile: "abstract.txt"}, root)
	cfg.Path = filepath.Join(root, config.DefaultName)
	relevant := relevantPaths(cfg)

	assert.True(t, relevant("main.tex"))
	assert.True(t, relevant("sections/a.sty"))
	assert.True(t, relevant(config.DefaultName))
	assert.True(t, relevant("abstract.txt"))
	assert.False(t, relevant("main_20240101_000000.pdf"))
	assert.False(t, relevant("build.log"))
}
