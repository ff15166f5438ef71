package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

const identityFile = "identity.key"

// EncryptedStorage persists sessions as age-encrypted files on disk, one
// file per CUIT. Session cookies are bearer credentials for a tax account,
// so they never touch disk in plaintext.
//
// The store manages its own X25519 identity: on first use a key is generated
// and written next to the session files with owner-only permissions.
// Subsequent runs reuse it.
type EncryptedStorage struct {
	dir       string
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewEncryptedStorage opens (or initializes) an encrypted session store
// rooted at dir.
func NewEncryptedStorage(dir string) (*EncryptedStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	identity, err := loadOrCreateIdentity(filepath.Join(dir, identityFile))
	if err != nil {
		return nil, err
	}

	return &EncryptedStorage{
		dir:       dir,
		identity:  identity,
		recipient: identity.Recipient(),
	}, nil
}

func loadOrCreateIdentity(path string) (*age.X25519Identity, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		identity, parseErr := age.ParseX25519Identity(strings.TrimSpace(string(raw)))
		if parseErr != nil {
			return nil, fmt.Errorf("parsing identity %s: %w", path, parseErr)
		}
		return identity, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading identity: %w", err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating identity: %w", err)
	}
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("writing identity: %w", err)
	}
	return identity, nil
}

func (e *EncryptedStorage) sessionPath(cuit string) string {
	return filepath.Join(e.dir, fmt.Sprintf("session_%s.age", cuit))
}

// Save encrypts and writes the session, replacing any previous one for the
// same CUIT. The write goes through a temp file and rename so a crash never
// leaves a truncated session behind.
func (e *EncryptedStorage) Save(session *Session) error {
	if session == nil || session.CUIT == "" {
		return fmt.Errorf("session must have a CUIT")
	}

	plaintext, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, e.recipient)
	if err != nil {
		return fmt.Errorf("encrypting session: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("encrypting session: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("encrypting session: %w", err)
	}

	path := e.sessionPath(session.CUIT)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Load decrypts the stored session for cuit, returning (nil, nil) when none
// is stored.
func (e *EncryptedStorage) Load(cuit string) (*Session, error) {
	sealed, err := os.ReadFile(e.sessionPath(cuit))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(sealed), e.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting session: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decrypting session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

// Delete removes the stored session for cuit, if any.
func (e *EncryptedStorage) Delete(cuit string) error {
	err := os.Remove(e.sessionPath(cuit))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
