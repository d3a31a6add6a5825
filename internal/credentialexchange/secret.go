package credentialexchange

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/werf/lockgate"
	"github.com/werf/lockgate/pkg/file_locker"
	"github.com/zalando/go-keyring"
)

var (
	ErrCannotLockDir              = errors.New("unable to create lock dir")
	ErrUnableToLoadDueToLock      = errors.New("cannot load secret due to lock error")
	ErrUnableToLoadSecret         = errors.New("unable to load secret")
	ErrUnableToSaveSecret         = errors.New("unable to save secret")
	ErrFailedToClearSecretStorage = errors.New("failed to clear secret storage on OS")
)

// Keyring is the OS secret storage
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// keyRingImpl is the default keyring implementation
type keyRingImpl struct{}

func (k *keyRingImpl) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}
func (k *keyRingImpl) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}
func (k *keyRingImpl) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// SecretStore keeps the federation password of a user in the OS keyring
type SecretStore struct {
	keyring       Keyring
	locker        lockgate.Locker
	lockResource  string
	secretService string
	logger        logr.Logger
}

// NewSecretStore returns a store for service, locking through a
// directory under baseDir.
func NewSecretStore(service, baseDir string) (*SecretStore, error) {
	lockDir := filepath.Join(baseDir, fmt.Sprintf("%s-lock", SELF_NAME))
	locker, err := file_locker.NewFileLocker(lockDir)
	if err != nil {
		return nil, fmt.Errorf("cannot setup lock dir: %s, %s, %w", lockDir, err, ErrCannotLockDir)
	}

	return &SecretStore{
		locker:        locker,
		keyring:       &keyRingImpl{},
		lockResource:  service,
		secretService: service,
		logger:        logr.Discard(),
	}, nil
}

func (s *SecretStore) WithLocker(locker lockgate.Locker) *SecretStore {
	s.locker = locker
	return s
}

func (s *SecretStore) WithKeyring(keyring Keyring) *SecretStore {
	s.keyring = keyring
	return s
}

func (s *SecretStore) WithLogger(logger logr.Logger) *SecretStore {
	s.logger = logger
	return s
}

func (s *SecretStore) ensureLock() (func(), error) {
	acquired, lock, err := s.locker.Acquire(s.lockResource, lockgate.AcquireOptions{Shared: false, Timeout: 1 * time.Minute})
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err, ErrUnableToAcquireLock)
	}

	if !acquired {
		return nil, fmt.Errorf("lock %s not acquired, %w", s.lockResource, ErrUnableToLoadDueToLock)
	}
	return func() {
		if err := s.locker.Release(lock); err != nil {
			s.logger.Error(err, "unable to release lock", "resource", s.lockResource)
		}
	}, nil
}

// Password returns the stored password for user, empty when there is none.
func (s *SecretStore) Password(user string) (string, error) {
	release, err := s.ensureLock()
	if err != nil {
		return "", err
	}
	defer release()

	password, err := s.keyring.Get(s.secretService, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("secret store: %s, %w", err, ErrUnableToLoadSecret)
	}
	s.logger.V(1).Info("got password from OS secret store", "user", user)
	return password, nil
}

func (s *SecretStore) SavePassword(user, password string) error {
	release, err := s.ensureLock()
	if err != nil {
		return err
	}
	defer release()

	if err := s.keyring.Set(s.secretService, user, password); err != nil {
		return fmt.Errorf("secret store: %s, %w", err, ErrUnableToSaveSecret)
	}
	return nil
}

// Clear removes the password of user, a missing entry is not an error.
func (s *SecretStore) Clear(user string) error {
	release, err := s.ensureLock()
	if err != nil {
		return err
	}
	defer release()

	if err := s.keyring.Delete(s.secretService, user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s, %w", err, ErrFailedToClearSecretStorage)
	}
	return nil
}
