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
	"testing"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
	"github.com/jeremyhahn/go-passkey/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*Repository, storage.Backend) {
	backend := memory.New()
	t.Cleanup(func() { _ = backend.Close() })
	return NewRepository(backend), backend
}

func testUser(username string, credentialIDs ...string) *UserRecord {
	user := NewUserRecord(username)
	now := time.Now().UTC()
	for _, id := range credentialIDs {
		user.Credentials = append(user.Credentials, Credential{
			ID:         id,
			PublicKey:  "cHVibGljLWtleQ",
			SignCount:  0,
			DeviceType: DeviceTypeSingleDevice,
			CreatedAt:  now,
			LastUsedAt: now,
		})
	}
	return user
}

func TestRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	user := testUser("alice", "cred-1")
	require.NoError(t, repo.PutUser(ctx, user))

	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	require.Len(t, got.Credentials, 1)
	assert.Equal(t, "cred-1", got.Credentials[0].ID)
}

func TestRepository_GetUser_NotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	_, err := repo.GetUser(ctx, "nobody")
	require.Error(t, err)
	assert.True(t, IsUserNotFound(err))
}

func TestRepository_PutUser_InvalidInput(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	err := repo.PutUser(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = repo.PutUser(ctx, &UserRecord{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRepository_PutUser_Upsert(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	user := testUser("alice", "cred-1")
	require.NoError(t, repo.PutUser(ctx, user))

	user.Credentials[0].SignCount = 42
	require.NoError(t, repo.PutUser(ctx, user))

	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got.Credentials, 1)
	assert.Equal(t, uint32(42), got.Credentials[0].SignCount)
}

func TestRepository_FindByCredentialID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.PutUser(ctx, testUser("alice", "cred-a1", "cred-a2")))
	require.NoError(t, repo.PutUser(ctx, testUser("bob", "cred-b1")))

	user, cred, err := repo.FindByCredentialID(ctx, "cred-a2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "cred-a2", cred.ID)

	user, cred, err = repo.FindByCredentialID(ctx, "cred-b1")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.Equal(t, "cred-b1", cred.ID)
}

func TestRepository_FindByCredentialID_Unknown(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.PutUser(ctx, testUser("alice", "cred-a1")))

	_, _, err := repo.FindByCredentialID(ctx, "no-such-credential")
	require.Error(t, err)
	assert.True(t, IsCredentialNotRegistered(err))
}

func TestRepository_FindByCredentialID_Empty(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	_, _, err := repo.FindByCredentialID(ctx, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRepository_FindByCredentialID_ScanFallback(t *testing.T) {
	ctx := context.Background()
	repo, backend := newTestRepository(t)

	// A record written without index entries, as an older deployment
	// would have left it.
	user := testUser("legacy", "cred-legacy")
	require.NoError(t, repo.PutUser(ctx, user))
	require.NoError(t, backend.Delete(ctx, credentialKeyPrefix+"cred-legacy"))

	got, cred, err := repo.FindByCredentialID(ctx, "cred-legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", got.Username)
	assert.Equal(t, "cred-legacy", cred.ID)
}

func TestRepository_FindByCredentialID_ReturnsLiveCredential(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.PutUser(ctx, testUser("alice", "cred-a1")))

	user, cred, err := repo.FindByCredentialID(ctx, "cred-a1")
	require.NoError(t, err)

	// The credential must alias the record's slice so counter updates
	// persist through PutUser.
	cred.SignCount = 7
	require.NoError(t, repo.PutUser(ctx, user))

	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got.Credentials[0].SignCount)
}

func TestRepository_ListUsers(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, repo.PutUser(ctx, testUser("alice", "cred-a1")))
	require.NoError(t, repo.PutUser(ctx, testUser("bob")))

	users, err = repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	names := map[string]bool{}
	for _, u := range users {
		names[u.Username] = true
	}
	assert.True(t, names["alice"])
	assert.True(t, names["bob"])
}

func TestRepository_DeleteUser(t *testing.T) {
	ctx := context.Background()
	repo, backend := newTestRepository(t)

	require.NoError(t, repo.PutUser(ctx, testUser("alice", "cred-a1")))
	require.NoError(t, repo.DeleteUser(ctx, "alice"))

	_, err := repo.GetUser(ctx, "alice")
	assert.True(t, IsUserNotFound(err))

	// The credential index entry is removed with the record.
	_, err = backend.Get(ctx, credentialKeyPrefix+"cred-a1")
	assert.True(t, storage.IsNotFound(err))

	_, _, err = repo.FindByCredentialID(ctx, "cred-a1")
	assert.True(t, IsCredentialNotRegistered(err))
}

func TestRepository_DeleteUser_NotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	err := repo.DeleteUser(ctx, "nobody")
	require.Error(t, err)
	assert.True(t, IsUserNotFound(err))
}
