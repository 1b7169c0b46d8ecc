package pgdb

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
)

const codeUniqueViolation = "23505"

// postgresDuplicate сообщает, что вставка нарушила уникальный индекс.
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// violatesConstraint сообщает, что вставка нарушила именно указанное ограничение уникальности.
func violatesConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraint
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// validProduct проверяет инварианты загруженной записи.
func validProduct(p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", e.ErrInvalidProductRecord, err)
	}

	return nil
}

// truncateUTF8 обрезает строку до limit байт, не разрывая руну.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}

	return s
}
