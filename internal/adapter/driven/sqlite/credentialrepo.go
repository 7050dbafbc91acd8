package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Secrets are encrypted with AES-256-GCM before write and decrypted after read.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable credential storage (reads and writes of
// secrets return driven.ErrEncryptionKeyNotSet; Exists and Delete still work).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// Exists reports whether a credential row is present for the service.
func (r *CredentialRepo) Exists(ctx context.Context, service model.ServiceID) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM credentials WHERE service = ?)`
	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, service.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check credential %q: %w", service, err)
	}
	return exists, nil
}

// Set stores or replaces the credential for the service in a single statement,
// so readers never observe a partial write.
func (r *CredentialRepo) Set(ctx context.Context, service model.ServiceID, secret string) error {
	encrypted, err := r.encrypt(secret)
	if err != nil {
		return err
	}

	const query = `INSERT INTO credentials (service, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.Writer.ExecContext(ctx, query, service.String(), encrypted); err != nil {
		return fmt.Errorf("set credential %q: %w", service, err)
	}
	return nil
}

// Get retrieves the plaintext secret for the service.
// Returns ("", nil) if no credential exists.
func (r *CredentialRepo) Get(ctx context.Context, service model.ServiceID) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM credentials WHERE service = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, service.String()).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get credential %q: %w", service, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt credential %q: %w", service, err)
	}
	return plaintext, nil
}

// List returns all stored credentials with decrypted secrets, ordered by service.
func (r *CredentialRepo) List(ctx context.Context) ([]model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, service, value, updated_at FROM credentials ORDER BY service`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		var (
			cred      model.Credential
			service   string
			encrypted string
			updatedAt string
		)
		if err := rows.Scan(&cred.ID, &service, &encrypted, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		cred.Service = model.ServiceID(service)

		cred.Secret, err = r.decrypt(encrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt credential %q: %w", service, err)
		}

		cred.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for credential %q: %w", service, err)
		}

		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Delete removes the credential for the service. Deleting a missing
// credential is not an error.
func (r *CredentialRepo) Delete(ctx context.Context, service model.ServiceID) error {
	const query = `DELETE FROM credentials WHERE service = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, service.String()); err != nil {
		return fmt.Errorf("delete credential %q: %w", service, err)
	}
	return nil
}

// encrypt returns base64(nonce || ciphertext || tag) under AES-256-GCM.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *CredentialRepo) aead() (cipher.AEAD, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
