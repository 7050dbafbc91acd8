package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// BRAINPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set BRAINPANEL_SECRET_KEY")

// CredentialStore defines the driven port for credential persistence, keyed
// by normalized service identifier. The adapter is responsible for
// encryption; this interface operates on plaintext at the domain boundary.
type CredentialStore interface {
	// Exists reports whether a credential is stored for the service.
	// A missing record is (false, nil), never an error.
	Exists(ctx context.Context, service model.ServiceID) (bool, error)

	// Set stores or replaces the credential for the service. Returns
	// ErrEncryptionKeyNotSet if the adapter was built without a key.
	Set(ctx context.Context, service model.ServiceID, secret string) error

	// Get retrieves the plaintext secret. Returns ("", nil) if none exists.
	Get(ctx context.Context, service model.ServiceID) (string, error)

	// List returns all stored credentials with decrypted secrets.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete removes the credential for the service.
	Delete(ctx context.Context, service model.ServiceID) error
}
