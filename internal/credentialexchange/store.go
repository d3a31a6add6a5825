package credentialexchange

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/dnitsch/aws-adfs-auth/internal/util"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/werf/lockgate"
	ini "gopkg.in/ini.v1"
)

var (
	ErrStorePersistFailure = errors.New("unable to persist credentials")
	ErrUnableToAcquireLock = errors.New("cannot acquire lock")
)

const storeLockResource = "aws-adfs-auth-credentials"

// CredentialStore writes profiles into a shared credentials file.
type CredentialStore struct {
	fs     afero.Fs
	path   string
	locker lockgate.Locker
	logger logr.Logger
}

func NewCredentialStore(fs afero.Fs, path string) *CredentialStore {
	return &CredentialStore{fs: fs, path: path, logger: logr.Discard()}
}

// WithLocker serialises writes through the locker.
func (s *CredentialStore) WithLocker(locker lockgate.Locker) *CredentialStore {
	s.locker = locker
	return s
}

func (s *CredentialStore) WithLogger(logger logr.Logger) *CredentialStore {
	s.logger = logger
	return s
}

func (s *CredentialStore) Path() string {
	return s.path
}

// Write stores creds in the profile section.
// An existing profile without a backup section is copied verbatim to
// <profile>.backup first. The file is replaced atomically, on any
// error the previous file is left as it was.
func (s *CredentialStore) Write(profile string, creds *AWSCredentials, region, output string) error {
	if profile == "" {
		return fmt.Errorf("profile name is required, %w", ErrStorePersistFailure)
	}
	if creds == nil {
		return fmt.Errorf("no credentials to store, %w", ErrStorePersistFailure)
	}

	release, err := s.lock()
	if err != nil {
		return err
	}
	defer release()

	cfg, err := s.load()
	if err != nil {
		return err
	}

	backupName := profile + BackupSuffix
	if cfg.HasSection(profile) && !cfg.HasSection(backupName) {
		if err := backupSection(cfg, profile, backupName); err != nil {
			return fmt.Errorf("%s, %w", err, ErrStorePersistFailure)
		}
		s.logger.V(1).Info("backed up existing profile", "profile", profile, "backup", backupName)
	}

	section := cfg.Section(profile)
	for _, kv := range [][2]string{
		{KeyOutput, output},
		{KeyRegion, region},
		{KeyAccessKeyId, creds.AWSAccessKey},
		{KeySecretAccessKey, creds.AWSSecretKey},
		{KeySessionToken, creds.AWSSessionToken},
	} {
		// NewKey only touches the section's own keys, Key would resolve
		// "a.b" to an existing key of parent section "a"
		if _, err := section.NewKey(kv[0], kv[1]); err != nil {
			return fmt.Errorf("%s, %w", err, ErrStorePersistFailure)
		}
	}

	buf := new(bytes.Buffer)
	if _, err := cfg.WriteTo(buf); err != nil {
		return fmt.Errorf("%s, %w", err, ErrStorePersistFailure)
	}
	if err := util.WriteFileAtomic(s.fs, s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("fail to write %s: %s, %w", s.path, err, ErrStorePersistFailure)
	}
	s.logger.V(1).Info("stored credentials", "path", s.path, "profile", profile)
	return nil
}

func (s *CredentialStore) load() (*ini.File, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("fail to read %s: %s, %w", s.path, err, ErrStorePersistFailure)
		}
		b = []byte{}
	}
	cfg, err := ini.Load(b)
	if err != nil {
		return nil, fmt.Errorf("fail to parse %s: %s, %w", s.path, err, ErrStorePersistFailure)
	}
	return cfg, nil
}

func (s *CredentialStore) lock() (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	acquired, lock, err := s.locker.Acquire(storeLockResource, lockgate.AcquireOptions{Shared: false, Timeout: 1 * time.Minute})
	if err != nil {
		return nil, fmt.Errorf("%s, %w, %w", err, ErrUnableToAcquireLock, ErrStorePersistFailure)
	}
	if !acquired {
		return nil, fmt.Errorf("lock %s not acquired, %w, %w", storeLockResource, ErrUnableToAcquireLock, ErrStorePersistFailure)
	}
	return func() {
		if err := s.locker.Release(lock); err != nil {
			s.logger.Error(err, "unable to release lock", "resource", storeLockResource)
		}
	}, nil
}

func backupSection(cfg *ini.File, from, to string) error {
	src := cfg.Section(from)
	dst, err := cfg.NewSection(to)
	if err != nil {
		return err
	}
	for _, k := range src.Keys() {
		if _, err := dst.NewKey(k.Name(), k.Value()); err != nil {
			return err
		}
	}
	return nil
}

// WriteEnvironmentFile writes a shell script exporting the region and
// credentials, replacing whatever the file held before.
func WriteEnvironmentFile(fs afero.Fs, path string, creds *AWSCredentials, region string) error {
	if creds == nil {
		return fmt.Errorf("no credentials to store, %w", ErrStorePersistFailure)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "export AWS_DEFAULT_REGION=%s\n", shellescape.Quote(region))
	fmt.Fprintf(&b, "export AWS_ACCESS_KEY_ID=%s\n", shellescape.Quote(creds.AWSAccessKey))
	fmt.Fprintf(&b, "export AWS_SECRET_ACCESS_KEY=%s\n", shellescape.Quote(creds.AWSSecretKey))
	fmt.Fprintf(&b, "export AWS_SESSION_TOKEN=%s\n", shellescape.Quote(creds.AWSSessionToken))

	if err := util.WriteFileAtomic(fs, path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("fail to write %s: %s, %w", path, err, ErrStorePersistFailure)
	}
	return nil
}
