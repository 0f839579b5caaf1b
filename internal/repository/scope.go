package repository

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// scopedQuery accumulates WHERE conditions for the tasks table. The only
// way to obtain one is ownedBy, so every task statement is filtered by
// its owner.
type scopedQuery struct {
	conds []string
	args  []any
}

func ownedBy(ownerID uuid.UUID) *scopedQuery {
	return &scopedQuery{
		conds: []string{"user_id = $1"},
		args:  []any{ownerID},
	}
}

// and appends cond, rewriting each '?' into the next positional parameter.
func (q *scopedQuery) and(cond string, args ...any) *scopedQuery {
	var b strings.Builder
	n := 0
	for _, r := range cond {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		q.args = append(q.args, args[n])
		n++
		b.WriteString("$" + strconv.Itoa(len(q.args)))
	}
	q.conds = append(q.conds, b.String())
	return q
}

// next returns the placeholder for an extra argument appended after the
// WHERE clause (SET values, LIMIT, ...).
func (q *scopedQuery) next(arg any) string {
	q.args = append(q.args, arg)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *scopedQuery) where() string {
	return "WHERE " + strings.Join(q.conds, " AND ")
}
