package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNameTaken is returned by InsertUser when the unique index on username
// rejects the row. The index is the authoritative uniqueness signal; UserNameExists
// is only a fast-path pre-check and offers no protection against a concurrent insert.
var ErrUserNameTaken = errors.New("user name already taken")

// UserRepository defines the data access surface for broker users and their
// access-control entries.
//
// Write operations report success as "exactly one row affected". A false result
// means the statement matched nothing (row absent, or soft-deleted where the
// statement filters live rows); it is never an error. Connection and statement
// failures are passed through verbatim.
type UserRepository interface {
	GetUsers(ctx context.Context) ([]User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByName(ctx context.Context, name string) (*User, error)
	GetUserNameAndIDByName(ctx context.Context, name string) (string, uuid.UUID, bool, error)
	UserNameExists(ctx context.Context, name string) (bool, error)
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error)
	InsertUser(ctx context.Context, user *User) (bool, error)
	UpdateUser(ctx context.Context, user *User) (bool, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteUserFromDatabase(ctx context.Context, id uuid.UUID) (bool, error)
	GetBlacklistItemsForUser(ctx context.Context, userID uuid.UUID, accessType AccessType) ([]AccessControlEntry, error)
	GetWhitelistItemsForUser(ctx context.Context, userID uuid.UUID, accessType AccessType) ([]AccessControlEntry, error)
	GetAllClientIDPrefixes(ctx context.Context) ([]string, error)
	InsertAccessControlEntry(ctx context.Context, entry *AccessControlEntry) (bool, error)
	DeleteAccessControlEntry(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteAccessControlEntryFromDatabase(ctx context.Context, id uuid.UUID) (bool, error)
}

// userRepository implements UserRepository using PostgreSQL
type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// GetUsers retrieves all live users ordered by name. The result is never nil.
func (r *userRepository) GetUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, selectUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// GetUserByID retrieves a user by primary key. Soft-deleted rows are returned with
// DeletedAt set; an absent row yields (nil, nil).
func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u := &User{}
	err := scanUser(r.pool.QueryRow(ctx, selectUserByID, id), u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return u, nil
}

// GetUserByName retrieves a live user by name; (nil, nil) when no live row matches.
func (r *userRepository) GetUserByName(ctx context.Context, name string) (*User, error) {
	u := &User{}
	err := scanUser(r.pool.QueryRow(ctx, selectUserByName, name), u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return u, nil
}

// GetUserNameAndIDByName is a projection used for lightweight identity checks
// without materializing the full entity. The bool reports whether a row matched.
func (r *userRepository) GetUserNameAndIDByName(ctx context.Context, name string) (string, uuid.UUID, bool, error) {
	var (
		userName string
		id       uuid.UUID
	)
	err := r.pool.QueryRow(ctx, selectUserNameAndIDByName, name).Scan(&userName, &id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", uuid.Nil, false, nil
		}
		return "", uuid.Nil, false, err
	}

	return userName, id, true, nil
}

// UserNameExists checks the name against every row, deleted or not, so a
// soft-deleted user's name stays reserved until the row is hard-deleted.
func (r *userRepository) UserNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, selectUserNameExists, name).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// ResetPassword replaces the stored password hash and nothing else. The hash is
// computed by the caller; plaintext never reaches this layer.
func (r *userRepository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateUserPassword, id, passwordHash)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// InsertUser inserts a fully-populated user. The caller assigns the primary key and
// the password hash beforehand; CreatedAt is stamped here.
func (r *userRepository) InsertUser(ctx context.Context, user *User) (bool, error) {
	user.CreatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, insertUser,
		user.ID,
		user.UserName,
		user.ClientIDPrefix,
		user.ClientID,
		user.ValidateClientID,
		user.ThrottleUser,
		user.MonthlyByteLimit,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "idx_users_username") {
			return false, ErrUserNameTaken
		}
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateUser applies a full-row update keyed by ID. Soft-deleted rows are not
// touched and never restored. Concurrent updates are last-writer-wins.
func (r *userRepository) UpdateUser(ctx context.Context, user *User) (bool, error) {
	now := time.Now().UTC()

	tag, err := r.pool.Exec(ctx, updateUser,
		user.ID,
		user.UserName,
		user.ClientIDPrefix,
		user.ClientID,
		user.ValidateClientID,
		user.ThrottleUser,
		user.MonthlyByteLimit,
		user.PasswordHash,
		now,
	)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() != 1 {
		return false, nil
	}

	user.UpdatedAt = &now
	return true, nil
}

// DeleteUser marks the row as deleted by stamping deletedat. The row stays in the
// store and remains readable by ID.
func (r *userRepository) DeleteUser(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, markUserDeleted, id, time.Now().UTC())
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteUserFromDatabase removes the row irreversibly. This also releases the
// username for reuse.
func (r *userRepository) DeleteUserFromDatabase(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteUser, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// GetBlacklistItemsForUser retrieves the live blacklist entries of one user for the
// given traffic direction.
func (r *userRepository) GetBlacklistItemsForUser(ctx context.Context, userID uuid.UUID, accessType AccessType) ([]AccessControlEntry, error) {
	return r.getAccessControlEntries(ctx, userID, ListKindBlacklist, accessType)
}

// GetWhitelistItemsForUser retrieves the live whitelist entries of one user for the
// given traffic direction.
func (r *userRepository) GetWhitelistItemsForUser(ctx context.Context, userID uuid.UUID, accessType AccessType) ([]AccessControlEntry, error) {
	return r.getAccessControlEntries(ctx, userID, ListKindWhitelist, accessType)
}

func (r *userRepository) getAccessControlEntries(ctx context.Context, userID uuid.UUID, kind ListKind, accessType AccessType) ([]AccessControlEntry, error) {
	rows, err := r.pool.Query(ctx, selectAccessControlEntries, userID, kind, accessType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]AccessControlEntry, 0)
	for rows.Next() {
		var e AccessControlEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.ListKind, &e.Type, &e.Value,
			&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// GetAllClientIDPrefixes retrieves the non-empty client-id prefixes of all live
// users, for the collaborator that assigns and validates client identifiers.
func (r *userRepository) GetAllClientIDPrefixes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, selectClientIDPrefixes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefixes := make([]string, 0)
	for rows.Next() {
		var prefix string
		if err := rows.Scan(&prefix); err != nil {
			return nil, err
		}
		prefixes = append(prefixes, prefix)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return prefixes, nil
}

// InsertAccessControlEntry inserts one blacklist or whitelist entry. The caller
// assigns the primary key; referential integrity against users is enforced by the
// store, not here.
func (r *userRepository) InsertAccessControlEntry(ctx context.Context, entry *AccessControlEntry) (bool, error) {
	entry.CreatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, insertAccessControlEntry,
		entry.ID,
		entry.UserID,
		entry.ListKind,
		entry.Type,
		entry.Value,
		entry.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteAccessControlEntry soft-deletes one entry.
func (r *userRepository) DeleteAccessControlEntry(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, markAccessControlEntryDeleted, id, time.Now().UTC())
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteAccessControlEntryFromDatabase removes one entry irreversibly.
func (r *userRepository) DeleteAccessControlEntryFromDatabase(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteAccessControlEntry, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// scanUser scans one users row in selectUser* column order.
func scanUser(row pgx.Row, u *User) error {
	return row.Scan(
		&u.ID,
		&u.UserName,
		&u.ClientIDPrefix,
		&u.ClientID,
		&u.ValidateClientID,
		&u.ThrottleUser,
		&u.MonthlyByteLimit,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
}
