package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateKey is returned when a write would put a (vin, dealer_id,
// modified_date) key into a collection that already holds it, or into both.
var ErrDuplicateKey = errors.New("duplicate vehicle key")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
