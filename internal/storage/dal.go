// Package storage is the data-access layer shared by the terminal apps.
// It persists a user's record collections (ordered CSV rows) and
// configuration (a flat JSON option mapping) either in the clear or
// encrypted, according to the session Mode.
//
// For every (user, kind) pair exactly one file variant exists at a time:
// user_kind.csv or user_kind.enc.csv (user_config.json or
// user_config.enc.json for configuration). Saves are full-file atomic
// rewrites; the stale opposite variant is removed as part of the same
// operation.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akarpov87/termvault/internal/common"
	"github.com/akarpov87/termvault/internal/cryptox"
	"github.com/akarpov87/termvault/internal/filex"
)

// Row is one record: a flat mapping from schema field names to scalar
// values rendered as strings. The field schema is supplied by the calling
// application and is opaque here beyond being a stable list of names.
type Row map[string]string

// Config is a flat option mapping, one per user. Numbers decode as
// float64, as usual with encoding/json.
type Config map[string]any

// DAL reads and writes user data files inside one application's data dir.
type DAL struct {
	dir string
}

// New returns a DAL rooted at dir.
func New(dir string) *DAL {
	return &DAL{dir: dir}
}

func (d *DAL) recordPath(username, kind string, encrypted bool) string {
	if encrypted {
		return filepath.Join(d.dir, fmt.Sprintf("%s_%s.enc.csv", username, kind))
	}
	return filepath.Join(d.dir, fmt.Sprintf("%s_%s.csv", username, kind))
}

func (d *DAL) configPath(username string, encrypted bool) string {
	if encrypted {
		return filepath.Join(d.dir, fmt.Sprintf("%s_config.enc.json", username))
	}
	return filepath.Join(d.dir, fmt.Sprintf("%s_config.json", username))
}

// LoadRecords reads the user's record collection for kind and parses it
// against schema. Rows come back in file order; no implicit sort.
//
// Errors: common.ErrNotFound when no variant exists yet (callers treat
// this as an empty initial collection), common.ErrDecryptionFailed on a
// bad password or tampered file, common.ErrCorruptFile when parsing fails
// after a successful decrypt, and the mode-mismatch sentinels when the
// on-disk variant contradicts the session Mode.
func (d *DAL) LoadRecords(username, kind string, schema []string, mode Mode) ([]Row, error) {
	data, err := d.readVariant(d.recordPath(username, kind, false), d.recordPath(username, kind, true), mode)
	if err != nil {
		return nil, err
	}
	return unmarshalRows(data, schema)
}

// SaveRecords serializes the full row sequence in the supplied order
// (complete rewrite, never append), encrypts it when the mode says so,
// and atomically writes the canonical file for that mode. The stale
// opposite variant, if present, is removed afterwards so only one variant
// survives the call.
func (d *DAL) SaveRecords(username, kind string, rows []Row, schema []string, mode Mode) error {
	data, err := marshalRows(rows, schema)
	if err != nil {
		return err
	}
	return d.writeVariant(d.recordPath(username, kind, false), d.recordPath(username, kind, true), data, mode)
}

// LoadConfig reads the user's option mapping. When no variant exists yet
// and defaults is non-nil, a copy of defaults is returned; with nil
// defaults the common.ErrNotFound sentinel surfaces instead.
func (d *DAL) LoadConfig(username string, defaults Config, mode Mode) (Config, error) {
	data, err := d.readVariant(d.configPath(username, false), d.configPath(username, true), mode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) && defaults != nil {
			cfg := make(Config, len(defaults))
			for k, v := range defaults {
				cfg[k] = v
			}
			return cfg, nil
		}
		return nil, err
	}
	return unmarshalConfig(data)
}

// SaveConfig writes the full option mapping under the same two-variant,
// atomic-rewrite contract as SaveRecords.
func (d *DAL) SaveConfig(username string, cfg Config, mode Mode) error {
	data, err := marshalConfig(cfg)
	if err != nil {
		return err
	}
	return d.writeVariant(d.configPath(username, false), d.configPath(username, true), data, mode)
}

// readVariant reads the file the session mode points at and decrypts it
// if needed. Existence probing of the opposite variant is used only to
// distinguish "no data yet" from "the session mode contradicts the file
// on disk".
func (d *DAL) readVariant(plainPath, encPath string, mode Mode) ([]byte, error) {
	path, other := plainPath, encPath
	if mode.IsEncrypted() {
		path, other = encPath, plainPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if _, statErr := os.Stat(other); statErr == nil {
			if mode.IsEncrypted() {
				// Plaintext file on disk, encrypted session.
				return nil, fmt.Errorf("%w: %s is plaintext", common.ErrModeMismatch, other)
			}
			return nil, fmt.Errorf("%w: %s", common.ErrPasswordRequired, other)
		}
		return nil, common.ErrNotFound
	}

	if mode.IsEncrypted() {
		return cryptox.Decrypt(data, mode.password)
	}
	return data, nil
}

// writeVariant encrypts if needed, atomically replaces the canonical file
// for the session mode, and removes the stale opposite variant. The two
// steps are not a transaction: a crash between them can briefly leave
// both variants, and the next save converges back to one.
func (d *DAL) writeVariant(plainPath, encPath string, data []byte, mode Mode) error {
	target, stale := plainPath, encPath
	if mode.IsEncrypted() {
		target, stale = encPath, plainPath

		encrypted, err := cryptox.Encrypt(data, mode.password)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", target, err)
		}
		data = encrypted
	}

	if err := filex.AtomicWrite(target, data, 0o600); err != nil {
		return err
	}

	if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale variant %s: %w", stale, err)
	}
	return nil
}
