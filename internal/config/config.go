package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dnitsch/aws-adfs-auth/internal/util"
	"github.com/spf13/afero"
	ini "gopkg.in/ini.v1"
)

const SELF_NAME = "aws-adfs-auth"

// sections and keys of the configuration document
const (
	SectionInfo     = "info"
	SectionProvider = "provider"
	SectionAws      = "aws"
	SectionAccounts = "aws_accounts"
	SectionMsAdfs   = "msadfs"

	KeyVersion           = "version"
	KeyProviderName      = "name"
	KeyIdpEntryUrl       = "idpentryurl"
	KeyProfileName       = "profile_name"
	KeyRegion            = "region"
	KeyOutputFormat      = "outputformat"
	KeyCredentialsFile   = "credentials_file"
	KeySslVerification   = "sslverification"
	KeySetEnvironmentVar = "set_environment_variables"
	KeyEnvironmentFile   = "environment_file"
	KeyUsername          = "username"
	KeySelectedRoleIndex = "selectedroleindex"
)

const (
	DefaultProfileName = "saml"
	ProviderMicrosoft  = "Microsoft"
)

var (
	ErrConfigFailure = errors.New("config error")
	ErrNotConfigured = errors.New("application is not configured, run configure")
)

// DefaultConfigPath is ~/.aws/adfs_auth.ini
func DefaultConfigPath(home string) string {
	return filepath.Join(home, ".aws", "adfs_auth.ini")
}

func DefaultCredentialsFile(home string) string {
	return filepath.Join(home, ".aws", "credentials")
}

func DefaultEnvironmentFile(home string) string {
	return filepath.Join(home, ".aws", "environment.sh")
}

// Document is the versioned configuration of the application
// persisted as an ini file.
type Document struct {
	fs   afero.Fs
	path string
	cfg  *ini.File
}

// Load reads the document at path. A missing file yields an empty document.
func Load(fs afero.Fs, path string) (*Document, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("fail to read %s: %s, %w", path, err, ErrConfigFailure)
		}
		b = []byte{}
	}
	cfg, err := ini.Load(b)
	if err != nil {
		return nil, fmt.Errorf("fail to parse %s: %s, %w", path, err, ErrConfigFailure)
	}
	return &Document{fs: fs, path: path, cfg: cfg}, nil
}

func (d *Document) Path() string {
	return d.path
}

// Save persists the document with an atomic replace.
func (d *Document) Save() error {
	buf := new(bytes.Buffer)
	if _, err := d.cfg.WriteTo(buf); err != nil {
		return fmt.Errorf("%s, %w", err, ErrConfigFailure)
	}
	if err := util.WriteFileAtomic(d.fs, d.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("fail to write %s: %s, %w", d.path, err, ErrConfigFailure)
	}
	return nil
}

// Has reports whether the key exists in the section.
func (d *Document) Has(section, key string) bool {
	if !d.cfg.HasSection(section) {
		return false
	}
	// HasKey also finds keys of a dotted section's parent
	return slices.Contains(d.cfg.Section(section).KeyStrings(), key)
}

// Get returns the value of key, empty when unset.
func (d *Document) Get(section, key string) string {
	if !d.Has(section, key) {
		return ""
	}
	return d.cfg.Section(section).Key(key).String()
}

// Bool parses the value of key as a boolean, unset or unparsable is false.
func (d *Document) Bool(section, key string) bool {
	if !d.Has(section, key) {
		return false
	}
	return d.cfg.Section(section).Key(key).MustBool(false)
}

func (d *Document) Set(section, key, value string) {
	_, _ = d.cfg.Section(section).NewKey(key, value)
}

// SetDefault sets the value only when the key is unset.
func (d *Document) SetDefault(section, key, value string) {
	if d.Has(section, key) {
		return
	}
	d.Set(section, key, value)
}

// Version returns the schema version tag, empty for legacy documents.
func (d *Document) Version() string {
	return d.Get(SectionInfo, KeyVersion)
}

// AccountLabels returns the account id to display name mapping.
func (d *Document) AccountLabels() map[string]string {
	labels := map[string]string{}
	if !d.cfg.HasSection(SectionAccounts) {
		return labels
	}
	for _, k := range d.cfg.Section(SectionAccounts).Keys() {
		labels[strings.TrimSpace(k.Name())] = k.String()
	}
	return labels
}

// IsConfigured reports whether the provider settings needed for a login are present.
func (d *Document) IsConfigured() bool {
	return d.Has(SectionProvider, KeyProviderName) && d.Has(SectionProvider, KeyIdpEntryUrl)
}

// Settings is the resolved view of the document used by a login.
type Settings struct {
	IdpEntryUrl     string
	ProfileName     string
	Region          string
	OutputFormat    string
	CredentialsFile string
	SslVerification bool
	SetEnvironment  bool
	EnvironmentFile string
}

func (d *Document) Settings() Settings {
	s := Settings{
		IdpEntryUrl:     d.Get(SectionProvider, KeyIdpEntryUrl),
		ProfileName:     d.Get(SectionProvider, KeyProfileName),
		Region:          d.Get(SectionAws, KeyRegion),
		OutputFormat:    d.Get(SectionAws, KeyOutputFormat),
		CredentialsFile: d.Get(SectionAws, KeyCredentialsFile),
		SslVerification: true,
		SetEnvironment:  d.Bool(SectionAws, KeySetEnvironmentVar),
		EnvironmentFile: d.Get(SectionAws, KeyEnvironmentFile),
	}
	if d.Has(SectionAws, KeySslVerification) {
		s.SslVerification = d.Bool(SectionAws, KeySslVerification)
	}
	if s.ProfileName == "" {
		s.ProfileName = DefaultProfileName
	}
	return s
}
