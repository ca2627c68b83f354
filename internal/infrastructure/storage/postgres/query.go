package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medstore/internal/core/apperror"
	"medstore/internal/domain"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// ParseOrderBy turns "name" / "-created_at" into an ORDER BY clause.
// Only keys of allowed are accepted; they map to real column expressions.
func ParseOrderBy(raw string, allowed map[string]string, fallback string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	direction := "ASC"
	if strings.HasPrefix(raw, "-") {
		direction = "DESC"
		raw = raw[1:]
	}

	col, ok := allowed[raw]
	if !ok {
		return "", apperror.NewValidation(fmt.Sprintf("cannot sort by %q", raw)).WithDetail("field", "orderBy")
	}
	return col + " " + direction + ", id " + direction, nil
}

// SelectPage counts the rows of q, then loads one page of them ordered by orderBy.
func SelectPage[T any](ctx context.Context, db Querier, q sq.SelectBuilder, filter domain.ListFilter, orderBy, op string) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	countSQL, countArgs, err := Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, apperror.NewDatabase(op, err)
	}
	if result.TotalCount == 0 {
		return result, nil
	}

	q = q.OrderBy(orderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, db, &result.Items, sql, args...); err != nil {
		return result, apperror.NewDatabase(op, err)
	}
	return result, nil
}

// SearchPattern wraps s for ILIKE, escaping its wildcards.
func SearchPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
