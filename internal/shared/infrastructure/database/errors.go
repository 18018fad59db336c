package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRows is the driver-neutral empty-result sentinel. Repositories map it
// to a nil aggregate so callers never see driver errors.
var ErrNoRows = errors.New("no rows in result set")

// IsNoRows reports whether err means an empty result on either driver.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}
