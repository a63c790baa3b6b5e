package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// The host loader's record. Legacy configs tracked the loader only through
// loader_version, so the import creates its record.
const (
	HostLoaderID   = "addon-loader"
	HostLoaderFile = "d3d9.dll"
)

// legacyConfig mirrors the YAML configuration written by earlier releases:
// per-addon maps keyed by addon id for the installed file name, version
// fingerprint and disabled flag.
type legacyConfig struct {
	GamePath      string            `yaml:"game_path"`
	BinFolder     string            `yaml:"bin_folder"`
	LoaderVersion string            `yaml:"loader_version"`
	Installed     map[string]string `yaml:"installed"`
	Version       map[string]string `yaml:"version"`
	Disabled      map[string]bool   `yaml:"disabled"`
}

// ImportLegacy parses a legacy YAML configuration into a Document.
// Versions without an installed file are dropped to keep records consistent.
func ImportLegacy(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy config: %w", err)
	}

	var lc legacyConfig
	if err := yaml.Unmarshal(data, &lc); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}

	doc := NewDocument()
	doc.Settings.HostPath = lc.GamePath
	if lc.BinFolder != "" {
		doc.Settings.BinFolder = lc.BinFolder
	}
	doc.Settings.LoaderVersion = lc.LoaderVersion

	for id, file := range lc.Installed {
		if file == "" {
			continue
		}
		rec := AddonRecord{
			InstalledFile:    file,
			InstalledVersion: lc.Version[id],
			Disabled:         lc.Disabled[id],
		}
		if rec.InstalledVersion != "" {
			rec.VersionKind = guessKind(rec.InstalledVersion)
		}
		doc.SetRecord(id, rec)
	}

	if lc.LoaderVersion != "" && !doc.Record(HostLoaderID).Installed() {
		doc.SetRecord(HostLoaderID, AddonRecord{
			InstalledVersion: lc.LoaderVersion,
			VersionKind:      KindTag,
			InstalledFile:    HostLoaderFile,
		})
	}
	return doc, nil
}

// guessKind classifies a legacy fingerprint: legacy configs stored md5 sums
// for hash-tracked addons and release tags for everything else.
func guessKind(v string) VersionKind {
	if len(v) == 32 && isHex(v) {
		return KindHash
	}
	return KindTag
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
