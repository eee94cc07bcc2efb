package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson"
	"github.com/hengadev/exprjson/ast"
)

// chdir moves into dir for the rest of the test. An empty go.mod keeps
// .env lookup from leaving dir.
func chdir(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module scratch\n"), 0644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfigValidFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "exprjson.yaml")
	configContent := `
indent: tab
identifiers: camelCase
type_names: full
store:
  kind: s3
  bucket: expressions
  prefix: v1/
  endpoint: http://localhost:9000
  force_path_style: true
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, "tab", cfg.Indent)
	assert.Equal(t, "camelCase", cfg.IdentifierConvention)
	assert.Equal(t, "full", cfg.TypeNameConvention)
	assert.Equal(t, StoreS3, cfg.Store.Kind)
	assert.Equal(t, "expressions", cfg.Store.Bucket)
	assert.Equal(t, "v1/", cfg.Store.Prefix)
	assert.Equal(t, "http://localhost:9000", cfg.Store.Endpoint)
	assert.True(t, cfg.Store.ForcePathStyle)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigNonExistentFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/exprjson.yaml")
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("store: [kind"), 0644))

	_, err := LoadConfig(configFile)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "exprjson.yaml")
	require.NoError(t, SaveConfig(DefaultConfig(), configFile))

	loaded, err := LoadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
	assert.NoError(t, loaded.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no store", func(c *Config) { c.Store = StoreConfig{} }, false},
		{"store kind is case insensitive", func(c *Config) { c.Store.Kind = " SQLite " }, false},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, true},
		{"s3 without bucket", func(c *Config) { c.Store = StoreConfig{Kind: StoreS3} }, true},
		{"unknown store", func(c *Config) { c.Store.Kind = "redis" }, true},
		{"bad codec setting", func(c *Config) { c.ObjectFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, exprjson.IsConfigurationError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResolveConfig_Layers(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(defaultConfigPath, []byte("indent: \"4\"\nstore:\n  kind: sqlite\n  path: from-file.db\n"), 0644))
	require.NoError(t, os.WriteFile(".env", []byte("EXPRJSON_STORE_PATH=from-dotenv.db\nEXPRJSON_IDENTIFIERS=camelCase\n"), 0644))
	t.Setenv(exprjson.EnvIdentifiers, "asIs")
	t.Setenv(exprjson.EnvStorePath, "")
	os.Unsetenv(exprjson.EnvStorePath)

	cfg, err := ResolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, "4", cfg.Indent, "file")
	assert.Equal(t, "from-dotenv.db", cfg.Store.Path, ".env fills unset variables")
	assert.Equal(t, "asIs", cfg.IdentifierConvention, "set variables win over .env")
}

func TestResolveConfig_BadEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(exprjson.EnvStoreForcePathStyle, "maybe")

	_, err := ResolveConfig("")
	require.Error(t, err)
	assert.True(t, exprjson.IsConfigurationError(err))
}

func TestCommands_StoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	ctx := context.Background()
	t.Setenv(exprjson.EnvLogLevel, "error")
	t.Setenv(exprjson.EnvStore, StoreSQLite)
	t.Setenv(exprjson.EnvStorePath, filepath.Join(dir, "docs.db"))

	c, err := exprjson.New()
	require.NoError(t, err)
	data, err := c.Marshal(ast.NewConstant(42))
	require.NoError(t, err)
	docFile := filepath.Join(dir, "answer.json")
	require.NoError(t, os.WriteFile(docFile, data, 0644))

	var out bytes.Buffer
	require.NoError(t, checkCommand(ctx, []string{docFile}, &out))
	assert.Contains(t, out.String(), "✓")

	out.Reset()
	require.NoError(t, putCommand(ctx, []string{"math/answer", docFile}, &out))
	assert.Contains(t, out.String(), "Stored math/answer")

	out.Reset()
	require.NoError(t, listCommand(ctx, []string{"math/"}, &out))
	assert.Equal(t, "math/answer\n", out.String())

	out.Reset()
	require.NoError(t, getCommand(ctx, []string{"math/answer"}, &out))
	assert.JSONEq(t, string(data), out.String())

	out.Reset()
	require.NoError(t, deleteCommand(ctx, []string{"math/answer"}, &out))
	err = getCommand(ctx, []string{"math/answer"}, &out)
	assert.ErrorIs(t, err, exprjson.ErrDocumentNotFound)
}

func TestCheckCommand_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"$schema":"other","expression":{}}`), 0644))

	var out bytes.Buffer
	err := checkCommand(context.Background(), []string{bad}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "✗")
	assert.Contains(t, err.Error(), "1 of 1")
}

func TestFmtCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	file := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"a":{"b":{"c":1,},},}`), 0644))

	var out bytes.Buffer
	err := fmtCommand([]string{file}, &out)
	require.Error(t, err, "trailing commas are rejected by default")

	t.Setenv(exprjson.EnvTrailingCommas, "true")
	out.Reset()
	require.NoError(t, fmtCommand([]string{"-indent", "tab", file}, &out))
	assert.Contains(t, out.String(), "\n\t\"a\": {\n\t\t\"b\"")
	assert.JSONEq(t, `{"a":{"b":{"c":1}}}`, out.String())

	require.NoError(t, fmtCommand([]string{"-indent", "0", "-w", file}, &out))
	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":{\"b\":{\"c\":1}}}\n", string(written))
}

func TestOpenStore_RequiresKind(t *testing.T) {
	_, _, err := openStore(context.Background(), StoreConfig{}, exprjson.NewDiscardLogger())
	require.Error(t, err)
	assert.True(t, exprjson.IsConfigurationError(err))
}

func TestInitCommand(t *testing.T) {
	chdir(t, t.TempDir())

	var out bytes.Buffer
	require.NoError(t, initCommand(nil, &out))
	_, err := os.Stat(defaultConfigPath)
	require.NoError(t, err)

	assert.Error(t, initCommand(nil, &out))
	assert.NoError(t, initCommand([]string{"-force"}, &out))
}
