package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/galleryexplorer/internal/search"
	"codeberg.org/snonux/galleryexplorer/internal/testutil"
)

type call struct {
	name  string
	args  []interface{}
	ctxOK bool
}

type fakeRunner struct {
	calls  []call
	closed bool
}

func (f *fakeRunner) record(ctx context.Context, name string, args ...interface{}) error {
	f.calls = append(f.calls, call{name: name, args: args, ctxOK: ctx != nil})
	return nil
}

func (f *fakeRunner) Search(ctx context.Context, q string) error { return f.record(ctx, "search", q) }
func (f *fakeRunner) Download(ctx context.Context, q string, pick []int, limit int) error {
	return f.record(ctx, "download", q, pick, limit)
}
func (f *fakeRunner) GalleryList() error { return f.record(context.TODO(), "gallery-list") }
func (f *fakeRunner) GalleryClear(confirmed bool) error {
	return f.record(context.TODO(), "gallery-clear", confirmed)
}
func (f *fakeRunner) History(ctx context.Context, limit int) error {
	return f.record(ctx, "history", limit)
}
func (f *fakeRunner) Batch(ctx context.Context, file string) error {
	return f.record(ctx, "batch", file)
}
func (f *fakeRunner) Archive() error { return f.record(context.TODO(), "archive") }
func (f *fakeRunner) GUI() error     { return f.record(context.TODO(), "gui") }
func (f *fakeRunner) Close() error {
	f.closed = true
	return nil
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func runArgs(t *testing.T, args ...string) (*fakeRunner, Config) {
	t.Helper()
	resetViper(t)

	runner := &fakeRunner{}
	var got Config
	cmd := CreateRootCommand(NewFlags(), func(cfg Config) (Runner, error) {
		got = cfg
		return runner, nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(&strings.Builder{})
	require.NoError(t, cmd.Execute())
	return runner, got
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)
	cmd := CreateRootCommand(NewFlags(), nil)

	assert.Equal(t, "galleryexplorer", cmd.Use)
	assert.Contains(t, cmd.Short, "Image search")

	for _, name := range []string{"config", "output", "engine", "size", "color", "safe", "log-level", "history", "history-path"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "persistent flag %s", name)
	}
	for _, name := range []string{"batch", "archive"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}

	var subs []string
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.Subset(t, subs, []string{"search", "download", "gallery", "history"})
}

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	assert.Equal(t, "google", flags.Engine)
	assert.Equal(t, "any", flags.Size)
	assert.Equal(t, "any", flags.Color)
	assert.Equal(t, "info", flags.LogLevel)
	assert.True(t, flags.History)
	assert.Equal(t, 10, flags.HistoryLimit)
	assert.False(t, flags.SafeSearch)
	assert.False(t, flags.Archive)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".local", "state", "galleryexplorer", "gallery"), flags.OutputDir)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want call
	}{
		{"no args launches gui", nil, call{name: "gui"}},
		{"archive", []string{"--archive"}, call{name: "archive"}},
		{"batch", []string{"--batch", "q.txt"}, call{name: "batch", args: []interface{}{"q.txt"}}},
		{"search joins words", []string{"search", "red", "fox"}, call{name: "search", args: []interface{}{"red fox"}}},
		{"download defaults", []string{"download", "owl"}, call{name: "download", args: []interface{}{"owl", []int(nil), 0}}},
		{"download pick", []string{"download", "owl", "--pick", "0,3"}, call{name: "download", args: []interface{}{"owl", []int{0, 3}, 0}}},
		{"download limit", []string{"download", "owl", "-n", "5"}, call{name: "download", args: []interface{}{"owl", []int(nil), 5}}},
		{"gallery list", []string{"gallery", "list"}, call{name: "gallery-list"}},
		{"gallery clear unconfirmed", []string{"gallery", "clear"}, call{name: "gallery-clear", args: []interface{}{false}}},
		{"gallery clear yes", []string{"gallery", "clear", "--yes"}, call{name: "gallery-clear", args: []interface{}{true}}},
		{"history default", []string{"history"}, call{name: "history", args: []interface{}{10}}},
		{"history limit", []string{"history", "--limit", "3"}, call{name: "history", args: []interface{}{3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, _ := runArgs(t, tt.args...)
			require.Len(t, runner.calls, 1)
			got := runner.calls[0]
			assert.Equal(t, tt.want.name, got.name)
			assert.Equal(t, tt.want.args, got.args)
			assert.True(t, got.ctxOK)
			assert.True(t, runner.closed)
		})
	}
}

func TestDownloadPickAndLimitExclusive(t *testing.T) {
	resetViper(t)
	cmd := CreateRootCommand(NewFlags(), func(Config) (Runner, error) { return &fakeRunner{}, nil })
	cmd.SetArgs([]string{"download", "owl", "--pick", "1", "--limit", "2"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	assert.Error(t, cmd.Execute())
}

func TestFlagsReachConfig(t *testing.T) {
	_, cfg := runArgs(t, "search", "x", "--engine", "bing", "--size", "large", "--color", "red",
		"--safe", "--output", "/tmp/g", "--log-level", "debug", "--history=false")

	assert.Equal(t, search.Bing, cfg.Query.Engine)
	assert.Equal(t, search.Large, cfg.Query.Filters.Size)
	assert.Equal(t, search.Red, cfg.Query.Filters.Color)
	assert.True(t, cfg.Query.Filters.SafeSearch)
	assert.Equal(t, "/tmp/g", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.HistoryEnabled)
}

func TestInitConfig_File(t *testing.T) {
	resetViper(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `output:
  directory: /test/output
search:
  engine: duckduckgo
  color: grayscale
slideshow:
  interval: 1500ms
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	_, stderr := testutil.CaptureOutput(t, func() { InitConfig(cfgPath) })
	assert.Contains(t, stderr, "Using config file: "+cfgPath)
	cfg := LoadConfig()

	assert.Equal(t, "/test/output", cfg.OutputDir)
	assert.Equal(t, search.DuckDuckGo, cfg.Query.Engine)
	assert.Equal(t, search.Grayscale, cfg.Query.Filters.Color)
	assert.Equal(t, 1500*time.Millisecond, cfg.SlideshowInterval)
}

func TestInitConfig_Env(t *testing.T) {
	resetViper(t)
	t.Setenv("GALLERYEXPLORER_SEARCH_ENGINE", "bing")
	t.Setenv("GALLERYEXPLORER_SEARCH_SIZE", "small")

	InitConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg := LoadConfig()

	assert.Equal(t, search.Bing, cfg.Query.Engine)
	assert.Equal(t, search.Small, cfg.Query.Filters.Size)
	assert.Equal(t, DefaultSlideshowInterval, cfg.SlideshowInterval)
}

func TestLoadConfig_Fallbacks(t *testing.T) {
	resetViper(t)
	viper.Set("search.engine", "altavista")

	var cfg Config
	_, stderr := testutil.CaptureOutput(t, func() { cfg = LoadConfig() })
	assert.Contains(t, stderr, "using google")
	assert.Equal(t, search.Google, cfg.Query.Engine)
	assert.Equal(t, DefaultOutputDir(), cfg.OutputDir)
	assert.Equal(t, DefaultSlideshowInterval, cfg.SlideshowInterval)
}

func TestBindFlagsToViper(t *testing.T) {
	resetViper(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("output", "", "")
	fs.String("engine", "", "")
	fs.String("size", "", "")
	fs.String("color", "", "")
	fs.Bool("safe", false, "")
	fs.String("log-level", "", "")
	fs.Bool("history", false, "")
	fs.String("history-path", "", "")
	require.NoError(t, fs.Parse([]string{"--output", "/o", "--engine", "ddg", "--history-path", "/h.db"}))

	bindFlagsToViper(fs)

	assert.Equal(t, "/o", viper.GetString("output.directory"))
	assert.Equal(t, "ddg", viper.GetString("search.engine"))
	assert.Equal(t, "/h.db", viper.GetString("history.path"))
}

func TestParsePick(t *testing.T) {
	got, err := ParsePick([]int{3, 0, 3}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0}, got)

	_, err = ParsePick([]int{5}, 5)
	assert.Error(t, err)
	_, err = ParsePick([]int{-1}, 5)
	assert.Error(t, err)
}
