// Package store persists the addon configuration document: global settings,
// one AddonRecord per managed addon and user-declared addon sources.
//
// The document is the single source of truth on disk. Every mutation goes
// through a load-mutate-save cycle (Update) that holds both an in-process
// mutex and an exclusive advisory file lock, and every save is a
// write-temp-then-rename so a half-written document is never observable.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/addonmgr/addonmgr/internal/config"
	"github.com/addonmgr/addonmgr/internal/log"
)

// VersionKind distinguishes release tags from content hashes. Fingerprints of
// different kinds are never compared with each other.
type VersionKind string

const (
	KindTag  VersionKind = "tag"
	KindHash VersionKind = "hash"
)

// Settings holds global, addon-independent configuration.
type Settings struct {
	HostPath      string `toml:"host_path,omitempty"`      // host application installation root
	BinFolder     string `toml:"bin_folder,omitempty"`     // subfolder enabled addons live in
	LoaderVersion string `toml:"loader_version,omitempty"` // fingerprint of the installed host loader
}

// AddonRecord is the durable state of one managed addon.
//
// InstalledVersion set implies InstalledFile set. Disabled is persisted
// instead of an "enabled" flag so that a fresh install, which never writes
// it, reads as active.
type AddonRecord struct {
	InstalledVersion string      `toml:"installed_version,omitempty"`
	VersionKind      VersionKind `toml:"version_kind,omitempty"`
	InstalledFile    string      `toml:"installed_file,omitempty"`
	Disabled         bool        `toml:"disabled,omitempty"`
	Companions       []string    `toml:"companions,omitempty"`
}

// Installed reports whether the record describes an installed artifact.
func (r AddonRecord) Installed() bool {
	return r.InstalledFile != ""
}

// Enabled reports whether the artifact is expected at its active path.
func (r AddonRecord) Enabled() bool {
	return r.Installed() && !r.Disabled
}

// Clear resets the record to the not-installed state.
func (r *AddonRecord) Clear() {
	*r = AddonRecord{}
}

// Source declares an additional addon published as GitHub releases.
type Source struct {
	Repo     string `toml:"repo"`               // owner/name
	Asset    string `toml:"asset,omitempty"`    // glob selecting the release asset; first asset if empty
	Strategy string `toml:"strategy,omitempty"` // "archive" or "file"
	File     string `toml:"file"`               // installed file name in the bin folder
	DataDir  string `toml:"data_dir,omitempty"` // host-relative data folder removed on delete
}

// Document is the configuration root persisted by Store.
type Document struct {
	Settings Settings               `toml:"settings"`
	Addons   map[string]AddonRecord `toml:"addons,omitempty"`
	Sources  map[string]Source      `toml:"sources,omitempty"`
}

// NewDocument returns an empty configuration.
func NewDocument() *Document {
	return &Document{
		Settings: Settings{BinFolder: config.DefaultBinFolder},
		Addons:   make(map[string]AddonRecord),
		Sources:  make(map[string]Source),
	}
}

// Record returns the record for id, or a zero record if none exists.
func (d *Document) Record(id string) AddonRecord {
	return d.Addons[id]
}

// SetRecord stores rec under id.
func (d *Document) SetRecord(id string, rec AddonRecord) {
	if d.Addons == nil {
		d.Addons = make(map[string]AddonRecord)
	}
	d.Addons[id] = rec
}

// BinDir returns the directory enabled addons are installed into.
func (d *Document) BinDir() (string, error) {
	if d.Settings.HostPath == "" {
		return "", ErrHostPathUnset
	}
	bin := d.Settings.BinFolder
	if bin == "" {
		bin = config.DefaultBinFolder
	}
	return filepath.Join(d.Settings.HostPath, bin), nil
}

// normalize fills nil maps and defaults after decoding.
func (d *Document) normalize() {
	if d.Addons == nil {
		d.Addons = make(map[string]AddonRecord)
	}
	if d.Sources == nil {
		d.Sources = make(map[string]Source)
	}
	if d.Settings.BinFolder == "" {
		d.Settings.BinFolder = config.DefaultBinFolder
	}
}

// Store reads and writes the configuration document.
type Store struct {
	cfg    *config.Config
	logger log.Logger
	mu     sync.Mutex // sequences in-process writers
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store for the document at cfg.ConfigFile.
func New(cfg *config.Config, opts ...Option) *Store {
	s := &Store{
		cfg:    cfg,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the configuration document.
func (s *Store) Path() string {
	return s.cfg.ConfigFile
}

// Load reads the document. A missing file yields an empty configuration
// (after a one-time import of a legacy YAML config if one exists). A document
// that cannot be parsed yields an error matching ErrConfigCorrupt.
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Importing writes the document, so it needs the exclusive lock. A
	// process that loses the race finds the document already written.
	exclusive := s.importPending()
	lock, err := acquire(s.cfg.LockFile(), exclusive)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.release() }()

	return s.read(exclusive)
}

// importPending reports whether the document is missing and a legacy
// configuration is waiting to be imported.
func (s *Store) importPending() bool {
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		return false
	}
	if s.cfg.LegacyConfigFile == "" {
		return false
	}
	_, err := os.Stat(s.cfg.LegacyConfigFile)
	return err == nil
}

// LoadOrDefault loads the document, falling back to an empty configuration
// when it is corrupt or unreadable. The fallback makes installed state appear
// forgotten, so it is logged as a warning.
func (s *Store) LoadOrDefault() *Document {
	doc, err := s.Load()
	if err != nil {
		s.logger.Warn("configuration unreadable, using empty configuration",
			"path", s.Path(), "error", err)
		return NewDocument()
	}
	return doc
}

// Save atomically replaces the document on disk.
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquire(s.cfg.LockFile(), true)
	if err != nil {
		return err
	}
	defer func() { _ = lock.release() }()

	return s.write(doc)
}

// Update runs one read-modify-write cycle. fn receives the current document
// (an empty one if the stored document is corrupt) and its changes are saved
// only when it returns nil.
func (s *Store) Update(fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquire(s.cfg.LockFile(), true)
	if err != nil {
		return err
	}
	defer func() { _ = lock.release() }()

	doc, err := s.read(true)
	if err != nil {
		if !errors.Is(err, ErrConfigCorrupt) {
			return err
		}
		s.logger.Warn("configuration corrupt, starting from empty configuration",
			"path", s.Path(), "error", err)
		doc = NewDocument()
	}

	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

// read loads the document. Caller must hold s.mu and the file lock; persist
// is true only under the exclusive lock and allows writing an import.
func (s *Store) read(persist bool) (*Document, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return s.importLegacy(persist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config document: %w", err)
	}

	doc := NewDocument()
	if _, err := toml.Decode(string(data), doc); err != nil {
		return nil, &CorruptError{Path: s.Path(), Err: err}
	}
	doc.normalize()
	return doc, nil
}

// importLegacy converts a legacy YAML config into a document on first load.
// Without one, an empty configuration is returned and nothing is written.
// When persist is false the converted document is returned unsaved.
func (s *Store) importLegacy(persist bool) (*Document, error) {
	legacy := s.cfg.LegacyConfigFile
	if legacy == "" {
		return NewDocument(), nil
	}
	if _, err := os.Stat(legacy); err != nil {
		return NewDocument(), nil
	}

	doc, err := ImportLegacy(legacy)
	if err != nil {
		s.logger.Warn("legacy configuration unreadable, ignoring", "path", legacy, "error", err)
		return NewDocument(), nil
	}
	if !persist {
		return doc, nil
	}
	if err := s.write(doc); err != nil {
		return nil, err
	}
	s.logger.Info("imported legacy configuration", "from", legacy, "to", s.Path())
	return doc, nil
}

// write persists the document. Caller must hold s.mu and the write lock.
func (s *Store) write(doc *Document) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal config document: %w", err)
	}

	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp config document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename config document: %w", err)
	}
	return nil
}
