package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/storage/codec"
	"github.com/yndnr/tokvault-go/pkg/crypto/adaptive"
)

func testVault(words ...string) *domain.Vault {
	v := domain.NewVault()
	for i, w := range words {
		v = v.With(domain.Entry{Word: w, Token: "tok" + string(rune('A'+i)) + "xxxxxxxxxxxx"})
	}
	return v
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresDir(t *testing.T) {
	_, err := NewManager(Config{})
	assert.Error(t, err)
}

func TestManager_CreateLoad(t *testing.T) {
	m := newTestManager(t, Config{})
	v := testVault("My", "age", "is", "43.")

	info, err := m.Create(v, "badger")
	require.NoError(t, err)
	assert.Equal(t, 4, info.Entries)
	assert.Equal(t, "badger", info.Backend)
	assert.False(t, info.Sealed)
	assert.FileExists(t, info.Path)
	assert.Len(t, info.Checksum, 64)

	got, loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, v.WordToToken, got.WordToToken)
	assert.Equal(t, v.TokenToWord, got.TokenToWord)
	assert.Equal(t, info.ID, loaded.ID)
	assert.Equal(t, info.Checksum, loaded.Checksum)
	assert.Equal(t, "badger", loaded.Backend)
}

func TestManager_LoadEmptyDir(t *testing.T) {
	m := newTestManager(t, Config{})
	_, _, err := m.Load()
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestManager_LoadNewest(t *testing.T) {
	m := newTestManager(t, Config{})

	_, err := m.Create(testVault("a"), "memory")
	require.NoError(t, err)
	_, err = m.Create(testVault("a", "b"), "memory")
	require.NoError(t, err)

	v, _, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
}

func TestManager_LoadSkipsCorrupt(t *testing.T) {
	m := newTestManager(t, Config{})

	_, err := m.Create(testVault("a"), "memory")
	require.NoError(t, err)
	newest, err := m.Create(testVault("a", "b"), "memory")
	require.NoError(t, err)

	data, err := os.ReadFile(newest.Path)
	require.NoError(t, err)
	data[len(magicBytes)+6] ^= 0xff
	require.NoError(t, os.WriteFile(newest.Path, data, 0o600))

	_, _, err = m.LoadFile(newest.Path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	v, info, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, v.Len())
	assert.NotEqual(t, newest.ID, info.ID)
}

func TestManager_Sealed(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	cipher, err := adaptive.New(key)
	require.NoError(t, err)

	dir := t.TempDir()
	sealed := newTestManager(t, Config{Dir: dir, Codec: codec.New(codec.WithCipher(cipher))})

	info, err := sealed.Create(testVault("secret"), "badger")
	require.NoError(t, err)
	assert.True(t, info.Sealed)

	raw, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	v, _, err := sealed.Load()
	require.NoError(t, err)
	w, ok := v.Token("secret")
	assert.True(t, ok)
	assert.NotEmpty(t, w)

	// Without the key the payload cannot be decoded.
	plain := newTestManager(t, Config{Dir: dir})
	_, _, err = plain.Load()
	assert.ErrorIs(t, err, domain.ErrDeserialization)
}

func TestManager_ListIgnoresForeignFiles(t *testing.T) {
	m := newTestManager(t, Config{})
	_, err := m.Create(testVault("a"), "memory")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "snapshot-bogus.tvsnap"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(m.Dir(), "snapshot-dir.tvsnap"), 0o750))

	infos, err := m.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestManager_PruneByCount(t *testing.T) {
	m := newTestManager(t, Config{RetentionCount: 2, RetentionDays: -1})

	var ids []string
	for i := 0; i < 5; i++ {
		info, err := m.Create(testVault("a"), "memory")
		require.NoError(t, err)
		ids = append(ids, info.ID)
	}

	removed, err := m.Prune()
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	infos, err := m.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, ids[3], infos[0].ID)
	assert.Equal(t, ids[4], infos[1].ID)
}

func TestManager_PruneByAge(t *testing.T) {
	m := newTestManager(t, Config{RetentionCount: -1, RetentionDays: 1})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
		m.now = func() time.Time { return base.Add(-age) }
		_, err := m.Create(testVault("a"), "memory")
		require.NoError(t, err)
	}

	m.now = func() time.Time { return base }
	removed, err := m.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	infos, err := m.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, base.Add(-time.Hour).UnixMilli(), infos[0].CreatedAt)
}

func TestManager_PruneKeepsNewest(t *testing.T) {
	m := newTestManager(t, Config{RetentionCount: -1, RetentionDays: -1})

	for i := 0; i < 3; i++ {
		_, err := m.Create(testVault("a"), "memory")
		require.NoError(t, err)
	}

	removed, err := m.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	infos, err := m.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}
