package service

import (
	stderrors "errors"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	return false
}
