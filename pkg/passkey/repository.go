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
	"context"
	"encoding/json"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

const (
	userKeyPrefix       = "user:"
	credentialKeyPrefix = "credential:"
)

// Repository is the durable mapping from username to user record, plus a
// reverse lookup from credential id to owning user. Records are stored as
// JSON under "user:{username}"; a secondary index "credential:{id}" ->
// username is maintained on every write so reverse lookups avoid a full
// scan. The repository performs no caching: every read reflects the
// backend's state at call time.
//
// Credential-id uniqueness across users is checked by the ceremonies at
// registration time, not enforced here; see Service.FinishRegistration.
type Repository struct {
	backend storage.Backend
}

// NewRepository creates a credential repository on the given backend.
func NewRepository(backend storage.Backend) *Repository {
	return &Repository{backend: backend}
}

// GetUser retrieves a user record by username.
// Returns ErrUserNotFound if the user does not exist.
func (r *Repository) GetUser(ctx context.Context, username string) (*UserRecord, error) {
	data, err := r.backend.Get(ctx, userKeyPrefix+username)
	if storage.IsNotFound(err) {
		return nil, NewError("get user", ErrUserNotFound)
	}
	if err != nil {
		return nil, WrapError("get user", err)
	}

	user := new(UserRecord)
	if err := json.Unmarshal(data, user); err != nil {
		return nil, WrapError("get user", err)
	}
	return user, nil
}

// PutUser upserts the record stored for user.Username and refreshes the
// credential index for every credential on the record.
func (r *Repository) PutUser(ctx context.Context, user *UserRecord) error {
	if user == nil || user.Username == "" {
		return WrapError("put user", ErrInvalidRequest)
	}

	data, err := json.Marshal(user)
	if err != nil {
		return WrapError("put user", err)
	}
	if err := r.backend.Set(ctx, userKeyPrefix+user.Username, data, storage.NoExpiry); err != nil {
		return WrapError("put user", err)
	}

	for i := range user.Credentials {
		key := credentialKeyPrefix + user.Credentials[i].ID
		if err := r.backend.Set(ctx, key, []byte(user.Username), storage.NoExpiry); err != nil {
			return WrapError("put user", err)
		}
	}
	return nil
}

// FindByCredentialID resolves a credential id to its owning user record
// and the matching credential. The returned credential points into the
// record's slice, so counter updates persist with a subsequent PutUser.
// Returns ErrCredentialNotRegistered if no user owns the credential.
func (r *Repository) FindByCredentialID(ctx context.Context, credentialID string) (*UserRecord, *Credential, error) {
	if credentialID == "" {
		return nil, nil, WrapError("find by credential id", ErrInvalidRequest)
	}

	// Fast path through the secondary index.
	owner, err := r.backend.Get(ctx, credentialKeyPrefix+credentialID)
	if err == nil {
		user, err := r.GetUser(ctx, string(owner))
		if err == nil {
			if cred := user.Credential(credentialID); cred != nil {
				return user, cred, nil
			}
		}
		// Stale index entry; fall through to the scan.
	} else if !storage.IsNotFound(err) {
		return nil, nil, WrapError("find by credential id", err)
	}

	// Records written before the index existed are still reachable by
	// scanning the user namespace.
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, user := range users {
		if cred := user.Credential(credentialID); cred != nil {
			return user, cred, nil
		}
	}

	return nil, nil, NewError("find by credential id", ErrCredentialNotRegistered)
}

// ListUsers returns every stored user record. Used by the reverse-lookup
// fallback and administrative recovery; not a hot path.
func (r *Repository) ListUsers(ctx context.Context) ([]*UserRecord, error) {
	keys, err := r.backend.Keys(ctx, userKeyPrefix)
	if err != nil {
		return nil, WrapError("list users", err)
	}

	users := make([]*UserRecord, 0, len(keys))
	for _, key := range keys {
		data, err := r.backend.Get(ctx, key)
		if storage.IsNotFound(err) {
			// Deleted between Keys and Get.
			continue
		}
		if err != nil {
			return nil, WrapError("list users", err)
		}

		user := new(UserRecord)
		if err := json.Unmarshal(data, user); err != nil {
			return nil, WrapError("list users", err)
		}
		users = append(users, user)
	}
	return users, nil
}

// DeleteUser removes a user record and its credential index entries.
// Returns ErrUserNotFound if the user does not exist.
func (r *Repository) DeleteUser(ctx context.Context, username string) error {
	user, err := r.GetUser(ctx, username)
	if err != nil {
		return err
	}

	for i := range user.Credentials {
		if err := r.backend.Delete(ctx, credentialKeyPrefix+user.Credentials[i].ID); err != nil && !storage.IsNotFound(err) {
			return WrapError("delete user", err)
		}
	}
	if err := r.backend.Delete(ctx, userKeyPrefix+username); err != nil && !storage.IsNotFound(err) {
		return WrapError("delete user", err)
	}
	return nil
}
