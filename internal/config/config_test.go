package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestConfigPath(t *testing.T) {
	t.Setenv(EnvConfigName, "")
	assert.Equal(t, DefaultName, ConfigPath(""))

	t.Setenv(EnvConfigName, "paper.cfg")
	assert.Equal(t, "paper.cfg", ConfigPath(""))
	assert.Equal(t, "explicit.cfg", ConfigPath("explicit.cfg"))
}

func TestLoad_EmptyObjectUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, DefaultName, "{}")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, "main", cfg.Target)
	assert.True(t, cfg.TargetDefaulted)
	assert.Equal(t, dir, cfg.OutDir)
	assert.Equal(t, []string{"**/*.tex", "**/*.sty", "**/*.bib"}, cfg.Import.Include)
	assert.Empty(t, cfg.Import.Exclude)
	assert.Equal(t, []string{"**/*.tex", "**/*.sty"}, cfg.Filter.Include)
	assert.Equal(t, []string{"**/*.tex", "**/*.sty", "**/*.bib", "**/*.bbl"}, cfg.Publish.Include)
	assert.Equal(t, []string{"**/*.bib", "*.bib"}, cfg.Publish.Exclude)
	assert.Equal(t, []string{"latexmk", "-pdf", "%FILE%"}, cfg.BuildCommand.Args)
	assert.Empty(t, cfg.MetadataFile)
}

func TestLoad_ComposesExcludes(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, DefaultName, `{
		"target": "paper",
		"outdir": "dist",
		"files": ["**/*.tex", "figs/*.pdf"],
		"files_exclude": ["drafts/**"],
		"import_files_exclude": ["scratch.tex"],
		"arxiv_files_include": ["**/*.bbl", "00README"],
		"arxiv_files_exclude": [],
		"build_command": "pdflatex -interaction=nonstopmode %FILE%",
		"metadata_file": "abstract.txt"
	}`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "paper", cfg.Target)
	assert.False(t, cfg.TargetDefaulted)
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.OutDir)
	assert.Equal(t, []string{"drafts/**", "scratch.tex"}, cfg.Import.Exclude)
	assert.Equal(t, []string{"**/*.tex", "figs/*.pdf", "**/*.bbl", "00README"}, cfg.Publish.Include)
	assert.Equal(t, []string{"drafts/**"}, cfg.Publish.Exclude, "explicit empty arxiv exclude drops the .bib default")
	assert.Equal(t, []string{"pdflatex", "-interaction=nonstopmode", "paper.tex"}, cfg.BuildCommand.Expand(cfg.Target))
	assert.Equal(t, "abstract.txt", cfg.MetadataFile)
}

func TestResolve_ListsDoNotAlias(t *testing.T) {
	files := make([]string, 1, 8)
	files[0] = "**/*.tex"
	cfg := Resolve(File{Files: files}, t.TempDir())

	cfg.Publish.Include[0] = "mutated"
	cfg.Import.Include = append(cfg.Import.Include, "extra")

	assert.Equal(t, "**/*.tex", cfg.Import.Include[0])
	assert.Equal(t, []string{"**/*.tex"}, files)
	assert.Equal(t, []string{"**/*.tex", "**/*.sty", "**/*.bib"}, Resolve(File{}, t.TempDir()).Import.Include)
}

func TestLoad_YAMLAndCommandList(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "tidyarxiv.yaml", `
target: paper
build_command: ["tectonic", "--keep-intermediates", "%FILE%"]
notify:
  nats_url: nats://localhost:4222
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"tectonic", "--keep-intermediates", "paper.tex"}, cfg.BuildCommand.Expand("paper"))
	assert.Equal(t, "nats://localhost:4222", cfg.Notify.NATSURL)
	assert.Equal(t, DefaultSubject, cfg.Notify.Subject)
	assert.Equal(t, "tidyarxiv.yaml", cfg.Name())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".env", "PAPER_TARGET=from_env\n")
	t.Setenv("PAPER_OUT", "out")
	p := writeConfig(t, dir, DefaultName, `{"target": "${PAPER_TARGET}", "outdir": "$PAPER_OUT"}`)
	t.Cleanup(func() { _ = os.Unsetenv("PAPER_TARGET") })

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Target)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.OutDir)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultName))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), `No "tidyarxiv.cfg" file found. Create a "tidyarxiv.cfg" file in the root of your project.`)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"broken.cfg":   `{"target": `,
		"empty.cfg":    "",
		"badcmd.cfg":   `{"build_command": 42}`,
		"blankcmd.cfg": `{"build_command": "   "}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, dir, name, content))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
		})
	}
}

func validProject(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.tex"), []byte("x"), 0o600))
	cfg := Resolve(File{}, dir)
	cfg.Path = filepath.Join(dir, DefaultName)
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		require.NoError(t, Validate(validProject(t)))
	})

	t.Run("default target missing", func(t *testing.T) {
		cfg := validProject(t)
		require.NoError(t, os.Remove(filepath.Join(cfg.Root, "main.tex")))
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `No "main.tex" file found. Specify a "target" in your "tidyarxiv.cfg" file.`)
	})

	t.Run("explicit target missing", func(t *testing.T) {
		cfg := validProject(t)
		cfg.Target, cfg.TargetDefaulted = "paper", false
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `No "paper.tex" file was found. Check the "target" in your "tidyarxiv.cfg" file.`)
	})

	t.Run("target is a directory", func(t *testing.T) {
		cfg := validProject(t)
		require.NoError(t, os.Mkdir(filepath.Join(cfg.Root, "dir.tex"), 0o750))
		cfg.Target, cfg.TargetDefaulted = "dir", false
		require.Error(t, Validate(cfg))
	})

	t.Run("target with separator", func(t *testing.T) {
		cfg := validProject(t)
		cfg.Target, cfg.TargetDefaulted = "sub/main", false
		require.Error(t, Validate(cfg))
	})

	t.Run("outdir missing", func(t *testing.T) {
		cfg := validProject(t)
		cfg.OutDir = filepath.Join(cfg.Root, "nope")
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `Output directory "`+cfg.OutDir+`" not found. Check the "outdir" in your "tidyarxiv.cfg" file.`)
		assert.Equal(t, ferrors.ExitConfig, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	})

	t.Run("outdir is a file", func(t *testing.T) {
		cfg := validProject(t)
		cfg.OutDir = filepath.Join(cfg.Root, "main.tex")
		require.Error(t, Validate(cfg))
	})

	t.Run("bad pattern", func(t *testing.T) {
		cfg := validProject(t)
		cfg.Filter.Include = []string{"[oops"}
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "filter_files")
	})
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, DefaultName)
	require.NoError(t, Init(jsonPath, false))
	require.Error(t, Init(jsonPath, false), "existing file is not overwritten")
	require.NoError(t, Init(jsonPath, true))

	cfg, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Target)
	assert.False(t, cfg.TargetDefaulted)
	assert.Equal(t, []string{"latexmk", "-pdf", "%FILE%"}, cfg.BuildCommand.Args)
	assert.Equal(t, []string{"**/*.bib", "*.bib"}, cfg.Publish.Exclude)

	yamlPath := filepath.Join(dir, "tidyarxiv.yml")
	require.NoError(t, Init(yamlPath, false))
	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Publish, fromYAML.Publish)
	assert.Equal(t, cfg.BuildCommand, fromYAML.BuildCommand)
}
