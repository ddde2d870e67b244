// Package repository implements the domain repositories over database/sql.
// Queries use $N placeholders, which both lib/pq and go-sqlite3 accept.
package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"jobboard/internal/domain"
)

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return &domain.ConflictError{Message: "resource already exists"}
		case "23503":
			return &domain.ValidationError{Message: "referenced resource does not exist"}
		}
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &domain.ConflictError{Message: "resource already exists"}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &domain.ValidationError{Message: "referenced resource does not exist"}
	}
	return err
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("%s %q not found", what, id)
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
