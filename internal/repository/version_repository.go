package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DatabaseVersionRepository defines the data access surface for the schema-revision
// ledger. The ledger is written by the migration tool and never cross-validated
// against the live schema here. Write contracts match UserRepository: true iff
// exactly one row was affected, false is not an error.
type DatabaseVersionRepository interface {
	GetDatabaseVersions(ctx context.Context) ([]DatabaseVersion, error)
	GetDatabaseVersionByID(ctx context.Context, id uuid.UUID) (*DatabaseVersion, error)
	GetDatabaseVersionByName(ctx context.Context, name string) (*DatabaseVersion, error)
	InsertDatabaseVersion(ctx context.Context, version *DatabaseVersion) (bool, error)
	UpdateDatabaseVersion(ctx context.Context, version *DatabaseVersion) (bool, error)
	DeleteDatabaseVersion(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteDatabaseVersionFromDatabase(ctx context.Context, id uuid.UUID) (bool, error)
}

// databaseVersionRepository implements DatabaseVersionRepository using PostgreSQL
type databaseVersionRepository struct {
	db *sqlx.DB
}

// NewDatabaseVersionRepository creates a new DatabaseVersionRepository instance
func NewDatabaseVersionRepository(db *sqlx.DB) DatabaseVersionRepository {
	return &databaseVersionRepository{db: db}
}

// GetDatabaseVersions retrieves all live ledger entries ordered by revision number.
// The result is never nil.
func (r *databaseVersionRepository) GetDatabaseVersions(ctx context.Context) ([]DatabaseVersion, error) {
	versions := make([]DatabaseVersion, 0)
	if err := r.db.SelectContext(ctx, &versions, selectDatabaseVersions); err != nil {
		return nil, err
	}

	return versions, nil
}

// GetDatabaseVersionByID retrieves one ledger entry by primary key. Soft-deleted
// rows are returned with DeletedAt set; an absent row yields (nil, nil).
func (r *databaseVersionRepository) GetDatabaseVersionByID(ctx context.Context, id uuid.UUID) (*DatabaseVersion, error) {
	v := &DatabaseVersion{}
	err := r.db.GetContext(ctx, v, selectDatabaseVersionByID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return v, nil
}

// GetDatabaseVersionByName retrieves one live ledger entry by revision name.
func (r *databaseVersionRepository) GetDatabaseVersionByName(ctx context.Context, name string) (*DatabaseVersion, error) {
	v := &DatabaseVersion{}
	err := r.db.GetContext(ctx, v, selectDatabaseVersionByName, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return v, nil
}

// InsertDatabaseVersion records one applied revision. The caller assigns the
// primary key; CreatedAt is stamped here.
func (r *databaseVersionRepository) InsertDatabaseVersion(ctx context.Context, version *DatabaseVersion) (bool, error) {
	version.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, insertDatabaseVersion,
		version.ID,
		version.Name,
		version.Number,
		version.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// UpdateDatabaseVersion updates name and number keyed by ID and stamps updatedat.
// Soft-deleted entries are not touched.
func (r *databaseVersionRepository) UpdateDatabaseVersion(ctx context.Context, version *DatabaseVersion) (bool, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, updateDatabaseVersion,
		version.ID,
		version.Name,
		version.Number,
		now,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if affected != 1 {
		return false, nil
	}

	version.UpdatedAt = &now
	return true, nil
}

// DeleteDatabaseVersion soft-deletes one ledger entry.
func (r *databaseVersionRepository) DeleteDatabaseVersion(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, markDatabaseVersionDeleted, id, time.Now().UTC())
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// DeleteDatabaseVersionFromDatabase removes one ledger entry irreversibly.
func (r *databaseVersionRepository) DeleteDatabaseVersionFromDatabase(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteDatabaseVersion, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
