package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/storage/codec"
)

var magicBytes = []byte("TOKVSNAP")

const (
	filePrefix    = "snapshot-"
	fileExtension = ".tvsnap"
	checksumSize  = 32
	headerVersion = 1

	// maxSectionLen bounds the header and data sections read from disk.
	maxSectionLen = 1 << 30

	DefaultRetentionCount = 5
	DefaultRetentionDays  = 7
)

type snapshotHeader struct {
	Version   int    `json:"version"`
	CreatedAt int64  `json:"created_at"`
	Entries   int    `json:"entries"`
	Sealed    bool   `json:"sealed"`
	Backend   string `json:"backend,omitempty"`
}

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrNoSnapshots      = errors.New("snapshot: no snapshots available")
)

// Config configures the snapshot manager.
type Config struct {
	Dir string

	// RetentionCount keeps the newest N snapshots. Zero uses the default,
	// a negative value disables the rule.
	RetentionCount int

	// RetentionDays keeps snapshots younger than N days. Zero uses the
	// default, a negative value disables the rule.
	RetentionDays int

	// Codec encodes the payload. Nil uses an unsealed codec.
	Codec *codec.Codec
}

func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		RetentionCount: DefaultRetentionCount,
		RetentionDays:  DefaultRetentionDays,
	}
}

// Manager creates, lists, loads and prunes snapshots in one directory.
type Manager struct {
	cfg   Config
	codec *codec.Codec
	now   func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	if cfg.RetentionCount == 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}

	c := cfg.Codec
	if c == nil {
		c = codec.New()
	}
	return &Manager{cfg: cfg, codec: c, now: time.Now}, nil
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string {
	return m.cfg.Dir
}

// Info contains metadata about a snapshot.
type Info struct {
	ID        string `json:"id" yaml:"id"`
	Entries   int    `json:"entries" yaml:"entries"`
	Sealed    bool   `json:"sealed" yaml:"sealed"`
	Backend   string `json:"backend,omitempty" yaml:"backend,omitempty"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
	Size      int64  `json:"size" yaml:"size"`
	Path      string `json:"path" yaml:"path"`
	Checksum  string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// Create writes v to a new snapshot file. backend names the source for
// operators and is informational only.
func (m *Manager) Create(v *domain.Vault, backend string) (*Info, error) {
	now := m.now()
	id := newID(now)

	data, err := m.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode vault: %w", err)
	}

	tempPath := filepath.Join(m.cfg.Dir, id+".tmp")
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	hash := sha256.New()
	writer := io.MultiWriter(file, hash)

	hdr := snapshotHeader{
		Version:   headerVersion,
		CreatedAt: now.UnixMilli(),
		Entries:   v.Len(),
		Sealed:    m.codec.Sealed(),
		Backend:   backend,
	}
	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	if err := writeAll(writer, magicBytes, section(hdrJSON), section(data)); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write: %w", err)
	}

	// Checksum trailer is not part of the hash.
	sum := hash.Sum(nil)
	if _, err := file.Write(sum); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}

	finalPath := filepath.Join(m.cfg.Dir, id+fileExtension)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	return &Info{
		ID:        id,
		Entries:   hdr.Entries,
		Sealed:    hdr.Sealed,
		Backend:   backend,
		CreatedAt: hdr.CreatedAt,
		Size:      stat.Size(),
		Path:      finalPath,
		Checksum:  hex.EncodeToString(sum),
	}, nil
}

// section prefixes b with its big-endian uint32 length.
func section(b []byte) []byte {
	out := make([]byte, 4, 4+len(b))
	binary.BigEndian.PutUint32(out, uint32(len(b)))
	return append(out, b...)
}

func writeAll(w io.Writer, parts ...[]byte) error {
	for _, p := range parts {
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// Load restores the vault from the newest valid snapshot. Corrupt files
// are skipped in favour of older ones.
func (m *Manager) Load() (*domain.Vault, *Info, error) {
	snapshots, err := m.List()
	if err != nil {
		return nil, nil, err
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		v, info, err := m.LoadFile(snapshots[i].Path)
		if err == nil {
			return v, info, nil
		}
		if errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidMagic) {
			continue
		}
		return nil, nil, err
	}

	return nil, nil, ErrNoSnapshots
}

// LoadFile verifies and decodes one snapshot file.
func (m *Manager) LoadFile(path string) (*domain.Vault, *Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if stat.Size() < int64(len(magicBytes))+checksumSize {
		return nil, nil, ErrChecksumMismatch
	}

	bodyLen := stat.Size() - checksumSize
	expected := make([]byte, checksumSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, bodyLen, checksumSize), expected); err != nil {
		return nil, nil, err
	}
	h := sha256.New()
	if _, err := io.CopyN(h, io.NewSectionReader(f, 0, bodyLen), bodyLen); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(h.Sum(nil), expected) {
		return nil, nil, ErrChecksumMismatch
	}

	br := bufio.NewReader(io.NewSectionReader(f, 0, bodyLen))

	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(magic, magicBytes) {
		return nil, nil, ErrInvalidMagic
	}

	hdrJSON, err := readSection(br)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	var hdr snapshotHeader
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if hdr.Version != headerVersion {
		return nil, nil, fmt.Errorf("snapshot: unsupported version %d", hdr.Version)
	}

	data, err := readSection(br)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read data: %w", err)
	}
	v, err := m.codec.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: decode vault: %w", err)
	}

	info := &Info{
		ID:        strings.TrimSuffix(filepath.Base(path), fileExtension),
		Entries:   v.Len(),
		Sealed:    hdr.Sealed,
		Backend:   hdr.Backend,
		CreatedAt: hdr.CreatedAt,
		Size:      stat.Size(),
		Path:      path,
		Checksum:  hex.EncodeToString(expected),
	}
	return v, info, nil
}

func readSection(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxSectionLen {
		return nil, fmt.Errorf("section of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// List returns snapshot files oldest first. Only the file name is read;
// CreatedAt comes from the ULID.
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []*Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		id := strings.TrimSuffix(name, fileExtension)
		created, ok := idTime(id)
		if !ok {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, &Info{
			ID:        id,
			CreatedAt: created.UnixMilli(),
			Size:      fi.Size(),
			Path:      filepath.Join(m.cfg.Dir, name),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Prune applies the retention policy. The newest snapshot is always kept.
// It returns the number of files removed.
func (m *Manager) Prune() (int, error) {
	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(infos) <= 1 {
		return 0, nil
	}

	keep := make(map[string]struct{}, len(infos))

	if m.cfg.RetentionCount > 0 {
		start := max(len(infos)-m.cfg.RetentionCount, 0)
		for _, info := range infos[start:] {
			keep[info.Path] = struct{}{}
		}
	}

	if m.cfg.RetentionDays > 0 {
		cutoff := m.now().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour).UnixMilli()
		for _, info := range infos {
			if info.CreatedAt > cutoff {
				keep[info.Path] = struct{}{}
			}
		}
	}

	keep[infos[len(infos)-1].Path] = struct{}{}

	removed := 0
	var errs []error
	for _, info := range infos {
		if _, ok := keep[info.Path]; ok {
			continue
		}
		if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func newID(t time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy())
	return filePrefix + strings.ToLower(id.String())
}

func idTime(id string) (time.Time, bool) {
	u, err := ulid.ParseStrict(strings.ToUpper(strings.TrimPrefix(id, filePrefix)))
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()), true
}
