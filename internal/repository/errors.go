package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/database"
)

const slugConstraint = "posts_slug_key"

// translate maps driver errors onto engine errors. Errors that already
// carry a code pass through unchanged.
func translate(err error, resource, id string) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return apperror.NotFound(resource, id)
	case database.IsUniqueViolation(err, slugConstraint):
		return apperror.Conflict("slug already in use", err)
	}
	return apperror.Database(fmt.Sprintf("%s query failed", resource), err)
}

func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Database(fmt.Sprintf("%s rows affected", resource), err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
