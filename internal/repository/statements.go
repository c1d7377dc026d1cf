package repository

// Statement catalog. Every statement the repositories execute lives here, grouped by
// operation kind, so a schema change touches exactly one file. Statements carry
// positional placeholders only; callers must bind values through the driver, never
// build SQL by concatenation.
//
// Soft-delete filtering policy:
//   - list reads and by-name reads see live rows only (deletedat IS NULL)
//   - by-id reads see every row, so a soft-deleted entity stays inspectable
//   - the username existence check sees every row: a soft-deleted user's name
//     stays reserved until the row is hard-deleted

// Select statements.
const (
	selectUsers = `
		SELECT id, username, clientidprefix, clientid, validateclientid,
		       throttleuser, monthlybytelimit, passwordhash,
		       createdat, updatedat, deletedat
		FROM users
		WHERE deletedat IS NULL
		ORDER BY username
	`

	selectUserByID = `
		SELECT id, username, clientidprefix, clientid, validateclientid,
		       throttleuser, monthlybytelimit, passwordhash,
		       createdat, updatedat, deletedat
		FROM users
		WHERE id = $1
	`

	selectUserByName = `
		SELECT id, username, clientidprefix, clientid, validateclientid,
		       throttleuser, monthlybytelimit, passwordhash,
		       createdat, updatedat, deletedat
		FROM users
		WHERE username = $1 AND deletedat IS NULL
	`

	selectUserNameAndIDByName = `
		SELECT username, id
		FROM users
		WHERE username = $1 AND deletedat IS NULL
	`

	selectUserNameExists = `
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)
	`

	selectClientIDPrefixes = `
		SELECT clientidprefix
		FROM users
		WHERE deletedat IS NULL AND clientidprefix <> ''
		ORDER BY clientidprefix
	`

	selectAccessControlEntries = `
		SELECT id, userid, listkind, type, value, createdat, updatedat, deletedat
		FROM accesscontrol
		WHERE userid = $1 AND listkind = $2 AND type = $3 AND deletedat IS NULL
		ORDER BY createdat
	`

	selectDatabaseVersions = `
		SELECT id, name, number, createdat, updatedat, deletedat
		FROM databaseversion
		WHERE deletedat IS NULL
		ORDER BY number
	`

	selectDatabaseVersionByID = `
		SELECT id, name, number, createdat, updatedat, deletedat
		FROM databaseversion
		WHERE id = $1
	`

	selectDatabaseVersionByName = `
		SELECT id, name, number, createdat, updatedat, deletedat
		FROM databaseversion
		WHERE name = $1 AND deletedat IS NULL
	`
)

// Insert statements. Each inserts exactly one row; the logical operation fails when
// the affected-row count differs from one.
const (
	insertUser = `
		INSERT INTO users (id, username, clientidprefix, clientid, validateclientid,
		                   throttleuser, monthlybytelimit, passwordhash, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	insertAccessControlEntry = `
		INSERT INTO accesscontrol (id, userid, listkind, type, value, createdat)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	insertDatabaseVersion = `
		INSERT INTO databaseversion (id, name, number, createdat)
		VALUES ($1, $2, $3, $4)
	`
)

// Update statements. Soft deletion is an update that sets the deletedat marker;
// it is a distinct statement from a field update.
const (
	updateUser = `
		UPDATE users
		SET username = $2, clientidprefix = $3, clientid = $4, validateclientid = $5,
		    throttleuser = $6, monthlybytelimit = $7, passwordhash = $8, updatedat = $9
		WHERE id = $1 AND deletedat IS NULL
	`

	updateUserPassword = `
		UPDATE users
		SET passwordhash = $2
		WHERE id = $1 AND deletedat IS NULL
	`

	markUserDeleted = `
		UPDATE users
		SET deletedat = $2
		WHERE id = $1 AND deletedat IS NULL
	`

	markAccessControlEntryDeleted = `
		UPDATE accesscontrol
		SET deletedat = $2
		WHERE id = $1 AND deletedat IS NULL
	`

	updateDatabaseVersion = `
		UPDATE databaseversion
		SET name = $2, number = $3, updatedat = $4
		WHERE id = $1 AND deletedat IS NULL
	`

	markDatabaseVersionDeleted = `
		UPDATE databaseversion
		SET deletedat = $2
		WHERE id = $1 AND deletedat IS NULL
	`
)

// Delete statements. These remove rows irreversibly.
const (
	deleteUser = `
		DELETE FROM users WHERE id = $1
	`

	deleteAccessControlEntry = `
		DELETE FROM accesscontrol WHERE id = $1
	`

	deleteDatabaseVersion = `
		DELETE FROM databaseversion WHERE id = $1
	`
)
