// microboard/database/accounts.go
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"microboard/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// GetAccount fetches a staff account by username.
func (ds *DatabaseService) GetAccount(username string) (*models.Account, error) {
	var a models.Account
	var lastActive sql.NullTime
	err := ds.DB.QueryRow("SELECT id, username, password, role, lastactive, imported FROM accounts WHERE username = ?",
		username).Scan(&a.ID, &a.Username, &a.Password, &a.Role, &lastActive, &a.Imported)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account '%s': %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting account '%s': %w", username, err)
	}
	if lastActive.Valid {
		a.LastActive = lastActive.Time
	}
	return &a, nil
}

// CreateAccount inserts a new staff account. Password must already be hashed.
func (ds *DatabaseService) CreateAccount(username, passwordHash string, role int) (int64, error) {
	res, err := ds.DB.Exec("INSERT INTO accounts (username, password, role) VALUES (?, ?, ?)",
		username, passwordHash, role)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, fmt.Errorf("account '%s' already exists: %w", username, ErrConflict)
		}
		return 0, fmt.Errorf("db error creating account '%s': %w", username, err)
	}
	return res.LastInsertId()
}

// UpdateAccount overwrites an account's mutable fields (password, role,
// lastactive) by internal id. Login uses this to advance lastactive.
func (ds *DatabaseService) UpdateAccount(a *models.Account) error {
	res, err := ds.DB.Exec("UPDATE accounts SET password = ?, role = ?, lastactive = ? WHERE id = ?",
		a.Password, a.Role, a.LastActive, a.ID)
	if err != nil {
		return fmt.Errorf("db error updating account '%s': %w", a.Username, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account '%s': %w", a.Username, ErrNotFound)
	}
	return nil
}

// ListAccountDetails returns the fields staff are allowed to see about each
// other: username, role and last activity. Password hashes stay put.
func (ds *DatabaseService) ListAccountDetails() ([]models.Account, error) {
	rows, err := ds.DB.Query("SELECT username, role, lastactive FROM accounts ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("db error listing accounts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListAccountDetails", "error", err)
		}
	}()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		var lastActive sql.NullTime
		if err := rows.Scan(&a.Username, &a.Role, &lastActive); err != nil {
			ds.logger.Error("Failed to scan account row", "error", err)
			continue
		}
		if lastActive.Valid {
			a.LastActive = lastActive.Time
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}
