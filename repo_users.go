package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var trackSuccessfulLoginSQL = `UPDATE "users" AS "usr"
SET
	"loggedin_at" = ?,
	"login_attempt_at" = NULL,
	"login_attempts" = 0
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
);`

// Users is the bun-backed record store. It satisfies RecordStore and
// adds transactional variants for callers composing larger writes.
type Users interface {
	RecordStore

	InsertTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	UpdateFieldsTx(ctx context.Context, tx bun.IDB, id string, record *User) (*User, error)
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users       = (*users)(nil)
	_ RecordStore = (*users)(nil)
)

// NewUsersRepository wires the repository over a bun database handle.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			if id, err := uuid.Parse(u.ID); err == nil {
				return id
			}
			return uuid.Nil
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id.String()
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.findByColumn(ctx, "email", email)
}

func (a *users) FindByUsername(ctx context.Context, username string) (*User, error) {
	return a.findByColumn(ctx, "username", username)
}

func (a *users) FindByID(ctx context.Context, id string) (*User, error) {
	return a.findByColumn(ctx, "id", id)
}

func (a *users) FindByReferralCode(ctx context.Context, code string) (*User, error) {
	return a.findByColumn(ctx, "referral_code", code)
}

// findByColumn resolves a single row by an exact, case-sensitive match.
func (a *users) findByColumn(ctx context.Context, column, value string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{column: value})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) Insert(ctx context.Context, record *User) (*User, error) {
	return a.InsertTx(ctx, a.db, record)
}

func (a *users) InsertTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *users) Update(ctx context.Context, id string, record *User) (*User, error) {
	return a.UpdateFieldsTx(ctx, a.db, id, record)
}

func (a *users) UpdateFieldsTx(ctx context.Context, tx bun.IDB, id string, record *User) (*User, error) {
	record.ID = id
	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id))
}

// ReferralCodeExists counts only unexpired codes: a code whose window
// has elapsed is free to reissue.
func (a *users) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	return a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.referral_code = ?", code).
		Where("?TableAlias.referral_code_expires_at > ?", time.Now()).
		Exists(ctx)
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, id string) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, id)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id string) error {
	// NOTE: partial updates cannot reset login_attempt_at and
	// login_attempts to their zero values, so this goes through raw SQL.
	_, err := tx.NewRaw(trackSuccessfulLoginSQL, time.Now(), id).Exec(ctx)
	return err
}
