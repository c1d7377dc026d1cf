package repository

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
)

// allStatements enumerates the full catalog with names for failure messages.
var allStatements = map[string]string{
	"selectUsers":                   selectUsers,
	"selectUserByID":                selectUserByID,
	"selectUserByName":              selectUserByName,
	"selectUserNameAndIDByName":     selectUserNameAndIDByName,
	"selectUserNameExists":          selectUserNameExists,
	"selectClientIDPrefixes":        selectClientIDPrefixes,
	"selectAccessControlEntries":    selectAccessControlEntries,
	"selectDatabaseVersions":        selectDatabaseVersions,
	"selectDatabaseVersionByID":     selectDatabaseVersionByID,
	"selectDatabaseVersionByName":   selectDatabaseVersionByName,
	"insertUser":                    insertUser,
	"insertAccessControlEntry":      insertAccessControlEntry,
	"insertDatabaseVersion":         insertDatabaseVersion,
	"updateUser":                    updateUser,
	"updateUserPassword":            updateUserPassword,
	"markUserDeleted":               markUserDeleted,
	"markAccessControlEntryDeleted": markAccessControlEntryDeleted,
	"updateDatabaseVersion":         updateDatabaseVersion,
	"markDatabaseVersionDeleted":    markDatabaseVersionDeleted,
	"deleteUser":                    deleteUser,
	"deleteAccessControlEntry":      deleteAccessControlEntry,
	"deleteDatabaseVersion":         deleteDatabaseVersion,
}

var placeholderRegex = regexp.MustCompile(`\$(\d+)`)

// Placeholders must be numbered contiguously from $1; a gap means a statement and
// its Exec call have drifted apart.
func TestStatementPlaceholdersContiguous(t *testing.T) {
	for name, stmt := range allStatements {
		seen := make(map[int]bool)
		max := 0
		for _, m := range placeholderRegex.FindAllStringSubmatch(stmt, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				t.Fatalf("%s: bad placeholder %q", name, m[0])
			}
			seen[n] = true
			if n > max {
				max = n
			}
		}

		for i := 1; i <= max; i++ {
			if !seen[i] {
				t.Errorf("%s: placeholder $%d missing (max is $%d)", name, i, max)
			}
		}
	}
}

func TestStatementsReferenceKnownTables(t *testing.T) {
	known := []string{"users", "accesscontrol", "databaseversion"}

	tableRegex := regexp.MustCompile(`(?i)(?:FROM|INTO|UPDATE)\s+(\w+)`)
	for name, stmt := range allStatements {
		for _, m := range tableRegex.FindAllStringSubmatch(stmt, -1) {
			table := strings.ToLower(m[1])
			found := false
			for _, k := range known {
				if table == k {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("%s references unknown table %q", name, table)
			}
		}
	}
}

// The existence check is the one read that must see soft-deleted rows: a deleted
// user's name stays reserved.
func TestUserNameExistsIgnoresSoftDeleteFilter(t *testing.T) {
	if strings.Contains(selectUserNameExists, "deletedat") {
		t.Errorf("selectUserNameExists must not filter on deletedat: %s", selectUserNameExists)
	}
}

func TestByIDSelectsIncludeSoftDeletedRows(t *testing.T) {
	for name, stmt := range map[string]string{
		"selectUserByID":            selectUserByID,
		"selectDatabaseVersionByID": selectDatabaseVersionByID,
	} {
		if strings.Contains(stmt, "deletedat IS NULL") {
			t.Errorf("%s must not filter soft-deleted rows; by-id reads return them with deletedat set", name)
		}
	}
}

func TestListSelectsFilterSoftDeletedRows(t *testing.T) {
	for name, stmt := range map[string]string{
		"selectUsers":                selectUsers,
		"selectUserByName":           selectUserByName,
		"selectClientIDPrefixes":     selectClientIDPrefixes,
		"selectAccessControlEntries": selectAccessControlEntries,
		"selectDatabaseVersions":     selectDatabaseVersions,
	} {
		if !strings.Contains(stmt, "deletedat IS NULL") {
			t.Errorf("%s must filter soft-deleted rows", name)
		}
	}
}

// Soft deletes are updates that stamp deletedat; hard deletes remove the row.
// The two must stay distinct statements.
func TestSoftAndHardDeleteAreDistinct(t *testing.T) {
	softs := []string{markUserDeleted, markAccessControlEntryDeleted, markDatabaseVersionDeleted}
	for _, stmt := range softs {
		upper := strings.ToUpper(stmt)
		if !strings.HasPrefix(strings.TrimSpace(upper), "UPDATE") {
			t.Errorf("soft delete must be an UPDATE: %s", stmt)
		}
		if !strings.Contains(stmt, "deletedat") {
			t.Errorf("soft delete must stamp deletedat: %s", stmt)
		}
	}

	hards := []string{deleteUser, deleteAccessControlEntry, deleteDatabaseVersion}
	for _, stmt := range hards {
		upper := strings.ToUpper(stmt)
		if !strings.HasPrefix(strings.TrimSpace(upper), "DELETE FROM") {
			t.Errorf("hard delete must be a DELETE: %s", stmt)
		}
	}
}

// Statements are pure text plus placeholders; any quoted literal smuggled into the
// catalog would bypass parameter binding.
func TestStatementsCarryNoStringLiterals(t *testing.T) {
	literalRegex := regexp.MustCompile(`'[^']*'`)
	for name, stmt := range allStatements {
		for _, lit := range literalRegex.FindAllString(stmt, -1) {
			if lit == "''" {
				// empty-string comparison in selectClientIDPrefixes
				continue
			}
			t.Errorf("%s embeds literal %s; bind it as a parameter instead", name, lit)
		}
	}
}
