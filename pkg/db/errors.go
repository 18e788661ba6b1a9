package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// IsUniqueViolation reports whether err is a Postgres unique violation. When
// constraintName is provided, the violation must reference that constraint.
// SQLite unique errors are matched by message so the same repositories work
// under the test driver.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == "23505" {
		return constraintName == "" || pgxErr.ConstraintName == constraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return constraintName == "" || strings.Contains(msg, constraintName)
	}
	if strings.Contains(msg, "duplicate key value") {
		return constraintName == "" || strings.Contains(msg, constraintName)
	}
	return false
}
