// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package passkey

import (
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-passkey/pkg/encoding/base64url"
)

// DeviceType classifies a credential by how widely its private key can
// exist. A backup-eligible credential (one that syncs across devices,
// e.g. a platform passkey) is multi-device; a hardware-bound key is
// single-device.
type DeviceType string

const (
	// DeviceTypeSingleDevice marks a credential bound to one authenticator.
	DeviceTypeSingleDevice DeviceType = "singleDevice"

	// DeviceTypeMultiDevice marks a credential that can be synced/backed up.
	DeviceTypeMultiDevice DeviceType = "multiDevice"
)

// Credential is one authenticator's public-key material bound to a user.
// Binary fields (id, COSE public key) are kept base64url-encoded so the
// record serializes cleanly to JSON for the key-value store.
type Credential struct {
	// ID is the credential identifier assigned by the authenticator,
	// base64url-encoded. Globally unique across all users.
	ID string `json:"id"`

	// PublicKey is the credential's COSE-encoded public key, base64url-
	// encoded. Opaque to this package; only the verifier interprets it.
	PublicKey string `json:"publicKey"`

	// SignCount is the authenticator's signature counter. Monotonically
	// non-decreasing across successful authentications; a non-increase on
	// a nonzero-counter authenticator signals a clone.
	SignCount uint32 `json:"signCount"`

	// DeviceType records whether the credential is hardware-bound or
	// syncable.
	DeviceType DeviceType `json:"deviceType"`

	// BackedUp indicates the credential is currently backed up.
	BackedUp bool `json:"backedUp"`

	// Transports lists the transports reported at registration time.
	Transports []protocol.AuthenticatorTransport `json:"transports,omitempty"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"createdAt"`

	// LastUsedAt is when the credential last completed an authentication.
	LastUsedAt time.Time `json:"lastUsedAt"`
}

// toWebAuthn converts the stored credential into the go-webauthn type
// used during assertion verification.
func (c *Credential) toWebAuthn() (webauthn.Credential, error) {
	id, err := base64url.Decode(c.ID)
	if err != nil {
		return webauthn.Credential{}, err
	}
	publicKey, err := base64url.Decode(c.PublicKey)
	if err != nil {
		return webauthn.Credential{}, err
	}
	return webauthn.Credential{
		ID:        id,
		PublicKey: publicKey,
		Transport: c.Transports,
		Flags: webauthn.CredentialFlags{
			BackupEligible: c.DeviceType == DeviceTypeMultiDevice,
			BackupState:    c.BackedUp,
		},
		Authenticator: webauthn.Authenticator{
			SignCount: c.SignCount,
		},
	}, nil
}

// descriptor converts the stored credential into the descriptor form
// placed on registration exclude lists.
func (c *Credential) descriptor() (protocol.CredentialDescriptor, error) {
	id, err := base64url.Decode(c.ID)
	if err != nil {
		return protocol.CredentialDescriptor{}, err
	}
	return protocol.CredentialDescriptor{
		Type:         protocol.PublicKeyCredentialType,
		CredentialID: id,
		Transport:    c.Transports,
	}, nil
}

// UserRecord is a user identity plus its ordered-by-creation credential
// list. Owned exclusively by the Repository; mutate only through
// Repository writes.
type UserRecord struct {
	// ID is the user handle: a random 128-bit identifier in canonical
	// UUID form. Immutable after creation.
	ID string `json:"id"`

	// Username is the unique text key for this user.
	Username string `json:"username"`

	// Credentials holds the user's registered credentials in creation order.
	Credentials []Credential `json:"credentials"`
}

// NewUserRecord creates a user record with a fresh random identity and no
// credentials.
func NewUserRecord(username string) *UserRecord {
	return &UserRecord{
		ID:          uuid.NewString(),
		Username:    username,
		Credentials: []Credential{},
	}
}

// Credential returns the user's credential with the given id, or nil.
func (u *UserRecord) Credential(id string) *Credential {
	for i := range u.Credentials {
		if u.Credentials[i].ID == id {
			return &u.Credentials[i]
		}
	}
	return nil
}

// HasCredential reports whether the user owns the given credential id.
func (u *UserRecord) HasCredential(id string) bool {
	return u.Credential(id) != nil
}

// handle returns the user's WebAuthn user handle as raw bytes.
func (u *UserRecord) handle() ([]byte, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, err
	}
	return id[:], nil
}
