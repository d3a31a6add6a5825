package config

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// CurrentVersion is the terminal schema version.
const CurrentVersion = "0.4.0"

// legacyVersion is assumed for documents without a version tag.
const legacyVersion = "0.2.0"

var ErrCorruptConfiguration = errors.New("configuration file corrupted, please re-configure application")

type transition struct {
	next  string
	apply func(m *Migrator, d *Document)
}

// migrations maps a version to the step that moves a document to the next one.
// A new schema version only needs a new entry and a bump of CurrentVersion.
var migrations = map[string]transition{
	"0.2.0": {next: "0.3.0", apply: migrate020to030},
	"0.3.0": {next: "0.4.0", apply: migrate030to040},
}

func migrate020to030(m *Migrator, d *Document) {
	d.SetDefault(SectionProvider, KeyProfileName, DefaultProfileName)
}

func migrate030to040(m *Migrator, d *Document) {
	d.SetDefault(SectionAws, KeySetEnvironmentVar, "False")
	d.SetDefault(SectionAws, KeyEnvironmentFile, DefaultEnvironmentFile(m.home))
}

// Migrator upgrades configuration documents to CurrentVersion.
type Migrator struct {
	home   string
	logger logr.Logger
}

func NewMigrator(home string, logger logr.Logger) *Migrator {
	return &Migrator{home: home, logger: logger}
}

// Step performs at most one transition, chosen by the current version of
// the document only. It reports whether the document was changed.
func (m *Migrator) Step(d *Document) (bool, error) {
	version := d.Version()
	if version == "" {
		version = legacyVersion
	}
	if version == CurrentVersion {
		return false, nil
	}
	t, ok := migrations[version]
	if !ok {
		return false, fmt.Errorf("unknown version %q: %w", version, ErrCorruptConfiguration)
	}
	m.logger.V(1).Info("migrating configuration", "from", version, "to", t.next)
	d.Set(SectionInfo, KeyVersion, t.next)
	t.apply(m, d)
	return true, nil
}

// Migrate walks the transition table until the document is at
// CurrentVersion and saves it when anything changed.
func (m *Migrator) Migrate(d *Document) error {
	changed := false
	for {
		stepped, err := m.Step(d)
		if err != nil {
			return err
		}
		if !stepped {
			break
		}
		changed = true
	}
	if !changed {
		m.logger.V(1).Info("migration of configuration not necessary")
		return nil
	}
	return d.Save()
}
