package repository

import (
	"time"

	"github.com/google/uuid"
)

// AccessType tags which direction of broker traffic an access-control entry governs.
type AccessType string

const (
	AccessTypePublish   AccessType = "publish"
	AccessTypeSubscribe AccessType = "subscribe"
)

// ListKind discriminates blacklist entries from whitelist entries. Both kinds share
// one table and one entity shape; queries select by (userid, listkind, type).
type ListKind string

const (
	ListKindBlacklist ListKind = "blacklist"
	ListKindWhitelist ListKind = "whitelist"
)

// User represents a registered broker client in the database.
type User struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserName         string     `db:"username" json:"username"`
	ClientIDPrefix   string     `db:"clientidprefix" json:"client_id_prefix"`
	ClientID         string     `db:"clientid" json:"client_id"`
	ValidateClientID bool       `db:"validateclientid" json:"validate_client_id"`
	ThrottleUser     bool       `db:"throttleuser" json:"throttle_user"`
	MonthlyByteLimit *int64     `db:"monthlybytelimit" json:"monthly_byte_limit,omitempty"`
	PasswordHash     string     `db:"passwordhash" json:"-"`
	CreatedAt        time.Time  `db:"createdat" json:"created_at"`
	UpdatedAt        *time.Time `db:"updatedat" json:"updated_at,omitempty"`
	DeletedAt        *time.Time `db:"deletedat" json:"deleted_at,omitempty"`
}

// AccessControlEntry represents one blacklist or whitelist record scoping a topic
// pattern to a user and a traffic direction. Pattern syntax is not validated here.
type AccessControlEntry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"userid" json:"user_id"`
	ListKind  ListKind   `db:"listkind" json:"list_kind"`
	Type      AccessType `db:"type" json:"type"`
	Value     string     `db:"value" json:"value"`
	CreatedAt time.Time  `db:"createdat" json:"created_at"`
	UpdatedAt *time.Time `db:"updatedat" json:"updated_at,omitempty"`
	DeletedAt *time.Time `db:"deletedat" json:"deleted_at,omitempty"`
}

// DatabaseVersion represents one applied schema revision in the audit ledger.
// Number is assigned monotonically by the migration tool that writes the ledger.
type DatabaseVersion struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Number    int64      `db:"number" json:"number"`
	CreatedAt time.Time  `db:"createdat" json:"created_at"`
	UpdatedAt *time.Time `db:"updatedat" json:"updated_at,omitempty"`
	DeletedAt *time.Time `db:"deletedat" json:"deleted_at,omitempty"`
}
