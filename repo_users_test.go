package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	auth "github.com/meridianvest/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    user_role TEXT NOT NULL,
    name TEXT NOT NULL,
    username TEXT UNIQUE,
    email TEXT NOT NULL UNIQUE,
    phone_number TEXT,
    avatar TEXT,
    password_hash TEXT,
    balance REAL NOT NULL DEFAULT 0,
    bonus REAL NOT NULL DEFAULT 0,
    referral_count INTEGER NOT NULL DEFAULT 0,
    referral_bonus REAL NOT NULL DEFAULT 0,
    referral_code TEXT,
    referral_code_issued_at TIMESTAMP NULL,
    referral_code_expires_at TIMESTAMP NULL,
    referred_by TEXT,
    referral_level INTEGER NOT NULL DEFAULT 0,
    login_attempts INTEGER NOT NULL DEFAULT 0,
    login_attempt_at TIMESTAMP NULL,
    loggedin_at TIMESTAMP NULL,
    metadata TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

func setupUsersRepo(t *testing.T) auth.Users {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return auth.NewUsersRepository(bunDB)
}

func TestUsersRepositoryInsertAppliesDefaults(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, &auth.User{
		Name:     "Peggy Flores",
		Username: "peggy",
		Email:    "peggy@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, auth.RoleUser, created.Role)

	found, err := repo.FindByEmail(ctx, "peggy@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	found, err = repo.FindByUsername(ctx, "peggy")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, auth.IsNotFound(err))
}

func TestUsersRepositoryLookupIsCaseSensitive(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, &auth.User{
		Name:  "Peggy Flores",
		Email: "peggy@example.com",
	})
	require.NoError(t, err)

	_, err = repo.FindByEmail(ctx, "Peggy@Example.com")
	require.Error(t, err)
	assert.True(t, auth.IsNotFound(err))
}

func TestUsersRepositoryPartialUpdate(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, &auth.User{
		Name:  "Peggy Flores",
		Email: "peggy@example.com",
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, created.ID, &auth.User{Name: "Peggy F."})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Peggy F.", found.Name)
	// untouched fields survive a partial update
	assert.Equal(t, "peggy@example.com", found.Email)
}

func TestUsersRepositoryReferralCodeExists(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	activeCode := "PGABCD23"
	activeExpiry := time.Now().Add(24 * time.Hour)
	_, err := repo.Insert(ctx, &auth.User{
		Name:                  "Active Owner",
		Email:                 "active@example.com",
		ReferralCode:          &activeCode,
		ReferralCodeExpiresAt: &activeExpiry,
	})
	require.NoError(t, err)

	expiredCode := "EXABCD23"
	expiredExpiry := time.Now().Add(-time.Minute)
	_, err = repo.Insert(ctx, &auth.User{
		Name:                  "Expired Owner",
		Email:                 "expired@example.com",
		ReferralCode:          &expiredCode,
		ReferralCodeExpiresAt: &expiredExpiry,
	})
	require.NoError(t, err)

	exists, err := repo.ReferralCodeExists(ctx, activeCode)
	require.NoError(t, err)
	assert.True(t, exists)

	// an elapsed window frees the code for reissue
	exists, err = repo.ReferralCodeExists(ctx, expiredCode)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ReferralCodeExists(ctx, "ZZABCD23")
	require.NoError(t, err)
	assert.False(t, exists)

	owner, err := repo.FindByReferralCode(ctx, activeCode)
	require.NoError(t, err)
	assert.Equal(t, "active@example.com", owner.Email)
}

func TestUsersRepositoryTrackSuccessfulLogin(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	attemptAt := time.Now().Add(-time.Minute)
	created, err := repo.Insert(ctx, &auth.User{
		Name:           "Peggy Flores",
		Email:          "peggy@example.com",
		LoginAttempts:  3,
		LoginAttemptAt: &attemptAt,
	})
	require.NoError(t, err)

	require.NoError(t, repo.TrackSuccessfulLogin(ctx, created.ID))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, found.LoginAttempts)
	assert.Nil(t, found.LoginAttemptAt)
	require.NotNil(t, found.LoggedInAt)
	assert.WithinDuration(t, time.Now(), *found.LoggedInAt, time.Minute)
}

func TestRepositoryManager(t *testing.T) {
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	bunDB := bun.NewDB(db, sqlitedialect.New())
	defer bunDB.Close()

	manager := auth.NewRepositoryManager(bunDB)
	require.NoError(t, manager.Validate())
	require.NotNil(t, manager.Users())
}
