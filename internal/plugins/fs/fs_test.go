package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zen-manager/internal/config"
	"zen-manager/internal/events"
	"zen-manager/internal/shell/shelltest"
)

func setup(t *testing.T, scope ...string) (*Plugin, string, *shelltest.Host) {
	t.Helper()

	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	configDir := filepath.Join(root, "config")

	m, err := config.Default()
	require.NoError(t, err)
	m.Plugins.FS.Scope = scope

	host := shelltest.NewHost(m)
	t.Cleanup(host.Bus.Shutdown)

	p := New(WithResolver(NewResolverWithRoots(map[BaseDirectory]string{
		AppLocalData: dataDir,
		AppConfig:    configDir,
	})))
	require.NoError(t, p.Setup(context.Background(), host))
	t.Cleanup(p.Shutdown)

	return p, dataDir, host
}

func TestFrontEndDatabaseRoundTrip(t *testing.T) {
	p, dataDir, _ := setup(t, "appLocalData")

	require.NoError(t, p.Mkdir(AppLocalData, "", true))

	exists, err := p.Exists(AppLocalData, "clients.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, p.WriteTextFile(AppLocalData, "clients.json", "[]", WriteOptions{}))

	exists, err = p.Exists(AppLocalData, "clients.json")
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := p.ReadTextFile(AppLocalData, "clients.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", content)

	onDisk, err := os.ReadFile(filepath.Join(dataDir, "clients.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(onDisk))
}

func TestWriteOptions(t *testing.T) {
	p, _, _ := setup(t, "appLocalData")
	require.NoError(t, p.Mkdir(AppLocalData, ".", true))

	require.NoError(t, p.WriteTextFile(AppLocalData, "log.txt", "a", WriteOptions{}))
	require.NoError(t, p.WriteTextFile(AppLocalData, "log.txt", "b", WriteOptions{Append: true}))
	got, err := p.ReadTextFile(AppLocalData, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)

	require.NoError(t, p.WriteTextFile(AppLocalData, "log.txt", "c", WriteOptions{}))
	got, err = p.ReadTextFile(AppLocalData, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	noCreate := false
	err = p.WriteTextFile(AppLocalData, "missing.txt", "x", WriteOptions{Create: &noCreate})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScopeAndPathConfinement(t *testing.T) {
	p, _, _ := setup(t, "appLocalData")

	_, err := p.ReadTextFile(AppConfig, "settings.json")
	assert.ErrorIs(t, err, ErrScopeDenied)

	_, err = p.ReadTextFile(AppLocalData, "../config/settings.json")
	assert.ErrorIs(t, err, ErrForbiddenPath)

	_, err = p.ReadTextFile(AppLocalData, "/etc/passwd")
	assert.ErrorIs(t, err, ErrForbiddenPath)

	assert.ErrorIs(t, p.WriteTextFile(AppLocalData, "", "x", WriteOptions{}), ErrForbiddenPath)
	assert.ErrorIs(t, p.Remove(AppLocalData, "", true), ErrForbiddenPath)
}

func TestSymlinksCannotLeaveBaseDirectory(t *testing.T) {
	p, dataDir, _ := setup(t, "appLocalData")
	require.NoError(t, p.Mkdir(AppLocalData, "", true))

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o644))

	if err := os.Symlink(outside, filepath.Join(dataDir, "escape")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(outside, "absent.txt"), filepath.Join(dataDir, "dangling")))
	require.NoError(t, os.Mkdir(filepath.Join(dataDir, "inner"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dataDir, "inner"), filepath.Join(dataDir, "alias")))

	_, err := p.ReadTextFile(AppLocalData, "escape/secret.txt")
	assert.ErrorIs(t, err, ErrForbiddenPath)

	err = p.WriteTextFile(AppLocalData, "escape/new.txt", "x", WriteOptions{})
	assert.ErrorIs(t, err, ErrForbiddenPath)
	assert.NoFileExists(t, filepath.Join(outside, "new.txt"))

	err = p.WriteTextFile(AppLocalData, "dangling", "x", WriteOptions{})
	assert.ErrorIs(t, err, ErrForbiddenPath)
	assert.NoFileExists(t, filepath.Join(outside, "absent.txt"))

	require.NoError(t, p.WriteTextFile(AppLocalData, "alias/ok.txt", "ok", WriteOptions{}))
	got, err := p.ReadTextFile(AppLocalData, "inner/ok.txt")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestSetupRejectsUnresolvableScope(t *testing.T) {
	m, err := config.Default()
	require.NoError(t, err)
	m.Plugins.FS.Scope = []string{"appCache"}

	host := shelltest.NewHost(m)
	defer host.Bus.Shutdown()

	p := New(WithResolver(NewResolverWithRoots(map[BaseDirectory]string{AppLocalData: t.TempDir()})))
	assert.ErrorIs(t, p.Setup(context.Background(), host), ErrUnknownBaseDirectory)
}

func TestReadDirAndRemove(t *testing.T) {
	p, _, _ := setup(t, "appLocalData")
	require.NoError(t, p.Mkdir(AppLocalData, "backups/2026", true))
	require.NoError(t, p.WriteTextFile(AppLocalData, "backups/index.json", "{}", WriteOptions{}))

	entries, err := p.ReadDir(AppLocalData, "backups")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]DirEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["2026"].IsDirectory)
	assert.True(t, byName["index.json"].IsFile)

	assert.Error(t, p.Remove(AppLocalData, "backups", false))
	require.NoError(t, p.Remove(AppLocalData, "backups", true))

	exists, err := p.Exists(AppLocalData, "backups")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMkdirNonRecursiveNeedsParent(t *testing.T) {
	p, _, _ := setup(t, "appLocalData")
	assert.ErrorIs(t, p.Mkdir(AppLocalData, "a/b", false), os.ErrNotExist)
}

func TestWatchEmitsChanges(t *testing.T) {
	p, _, host := setup(t, "appLocalData")
	require.NoError(t, p.Mkdir(AppLocalData, "", true))

	var (
		mu      sync.Mutex
		changes []Change
	)
	got := make(chan struct{}, 16)
	host.Bus.Listen(ChangeEvent, func(e events.Event) {
		mu.Lock()
		changes = append(changes, e.Payload.(Change))
		mu.Unlock()
		select {
		case got <- struct{}{}:
		default:
		}
	})

	id, err := p.Watch(AppLocalData, "", false)
	require.NoError(t, err)

	require.NoError(t, p.WriteTextFile(AppLocalData, "clients.json", "[]", WriteOptions{}))

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("no change event received")
	}

	mu.Lock()
	first := changes[0]
	mu.Unlock()
	assert.Equal(t, id, first.WatchID)
	assert.Equal(t, AppLocalData, first.BaseDir)
	assert.Equal(t, "clients.json", first.Path)

	require.NoError(t, p.Unwatch(id))
	assert.ErrorIs(t, p.Unwatch(id), ErrUnknownWatch)
}

func TestCommands(t *testing.T) {
	p, _, _ := setup(t, "appLocalData")
	cmds := p.Commands()
	ctx := context.Background()

	_, err := cmds["mkdir"](ctx, json.RawMessage(`{"path":"","baseDir":"appLocalData","recursive":true}`))
	require.NoError(t, err)

	_, err = cmds["write_text_file"](ctx, json.RawMessage(`{"path":"zen.json","baseDir":"appLocalData","contents":"{\"v\":1}"}`))
	require.NoError(t, err)

	out, err := cmds["read_text_file"](ctx, json.RawMessage(`{"path":"zen.json","baseDir":"appLocalData"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, out)

	out, err = cmds["exists"](ctx, json.RawMessage(`{"path":"zen.json","baseDir":"appLocalData"}`))
	require.NoError(t, err)
	assert.Equal(t, true, out)

	_, err = cmds["read_text_file"](ctx, json.RawMessage(`{"path":"zen.json","baseDir":"appConfig"}`))
	assert.ErrorIs(t, err, ErrScopeDenied)
}
