// Package auth implements the per-application credential store: a single
// users.json table mapping usernames to bcrypt password hashes and the
// user's encryption preference.
//
// The preference is fixed at registration; there is no API to change it
// afterwards. Every mutation rewrites the whole table through an atomic
// replace, so a crash mid-write never leaves a truncated table.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"

	"github.com/akarpov87/termvault/internal/common"
	"github.com/akarpov87/termvault/internal/filex"
)

// bcryptCost is the fixed adaptive-hashing cost factor. A single hash
// takes on the order of a hundred milliseconds; callers should signal a
// busy state around Register and Verify.
const bcryptCost = 12

// tableName is the credential table file inside the app data dir.
const tableName = "users.json"

// Profile is what a successful Verify returns about the account.
type Profile struct {
	EncryptionEnabled bool
}

// userRecord is the persisted per-user entry. The JSON field names are
// part of the on-disk format and must stay stable.
type userRecord struct {
	Password    string `json:"password"`
	EncryptData bool   `json:"encrypt_data"`
}

// Store reads and writes the credential table of one application.
type Store struct {
	dir string
}

// NewStore returns a Store over the credential table in dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) tablePath() string {
	return filepath.Join(s.dir, tableName)
}

// Register creates a new account with the given encryption preference.
// It fails with common.ErrUsernameTaken if the username already exists
// (exact, case-sensitive match) and common.ErrValidation if username or
// password is empty. The raw password is never persisted, only its hash.
func (s *Store) Register(username, password string, encrypt bool) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	users, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := users[username]; ok {
		return common.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users[username] = userRecord{Password: string(hash), EncryptData: encrypt}
	return s.save(users)
}

// Verify checks the password against the stored hash. It fails with
// common.ErrUnknownUser if the account does not exist and
// common.ErrInvalidCredentials on a mismatch; the bcrypt comparison is
// constant-time by construction. On success it returns the profile with
// the encryption preference chosen at registration.
func (s *Store) Verify(username, password string) (*Profile, error) {
	users, err := s.load()
	if err != nil {
		return nil, err
	}

	rec, ok := users[username]
	if !ok {
		return nil, common.ErrUnknownUser
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	return &Profile{EncryptionEnabled: rec.EncryptData}, nil
}

// Exists reports whether an account with that username is registered.
func (s *Store) Exists(username string) (bool, error) {
	users, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := users[username]
	return ok, nil
}

// load reads the whole credential table. A missing file is an empty
// table. Legacy entries that are bare hash strings (the pre-encryption
// format) are upgraded in memory to records with encryption disabled;
// they are rewritten in the new format on the next mutation.
func (s *Store) load() (map[string]userRecord, error) {
	data, err := os.ReadFile(s.tablePath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]userRecord{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.tablePath(), err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrCorruptFile, s.tablePath(), err)
	}

	users := make(map[string]userRecord, len(raw))
	for name, msg := range raw {
		var rec userRecord
		if err := json.Unmarshal(msg, &rec); err == nil {
			users[name] = rec
			continue
		}
		var legacyHash string
		if err := json.Unmarshal(msg, &legacyHash); err != nil {
			return nil, fmt.Errorf("%w: %s: bad entry for %q", common.ErrCorruptFile, s.tablePath(), name)
		}
		users[name] = userRecord{Password: legacyHash, EncryptData: false}
	}
	return users, nil
}

// save serializes the entire table and replaces the file atomically.
func (s *Store) save(users map[string]userRecord) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential table: %w", err)
	}
	return filex.AtomicWrite(s.tablePath(), data, 0o600)
}

// IsAuthError reports whether err belongs to the credential-store error
// taxonomy, as opposed to an I/O or corruption failure.
func IsAuthError(err error) bool {
	return errors.Is(err, common.ErrUnknownUser) ||
		errors.Is(err, common.ErrUsernameTaken) ||
		errors.Is(err, common.ErrInvalidCredentials) ||
		errors.Is(err, common.ErrValidation)
}
