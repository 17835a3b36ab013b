package storage

// Mode is the tagged plaintext-vs-encrypted variant for a session. It is
// selected once at login from the user's stored preference and passed
// explicitly to every load/save call; the session password is carried
// inside the value rather than held as ambient process state. No derived
// key is ever cached: every encrypted save generates a fresh salt and
// thus a logically new key.
type Mode struct {
	password  []byte
	encrypted bool
}

// PlainMode selects plaintext storage.
func PlainMode() Mode {
	return Mode{}
}

// EncryptedMode selects encrypted storage using the session password.
func EncryptedMode(password []byte) Mode {
	return Mode{password: password, encrypted: true}
}

// IsEncrypted reports whether this session writes the encrypted variant.
func (m Mode) IsEncrypted() bool {
	return m.encrypted
}
