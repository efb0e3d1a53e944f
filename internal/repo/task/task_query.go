package task

import (
	"strings"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/infra/database"
)

const taskColumns = "id, title, description, priority, status, due_date, created_at, updated_at, user_id, assigned_to"

// likeEscaper escapes the LIKE wildcards and the escape character itself.
//
//nolint:gochecknoglobals
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// taskQuery accumulates AND'd predicates over the tasks table. Every value is
// bound through a dialect placeholder; only fixed column names reach the SQL text.
type taskQuery struct {
	dialect    database.Dialect
	predicates []string
	args       []any
}

// newListQuery returns the listing query for owner narrowed by filter.
// The owner predicate is always the first one.
func newListQuery(dialect database.Dialect, owner int64, filter domain.TaskFilter) *taskQuery {
	q := &taskQuery{dialect: dialect}
	q.where("user_id = %s", owner)

	if filter.Status != nil {
		q.where("status = %s", *filter.Status)
	}

	if filter.Priority != nil {
		q.where("priority = %s", *filter.Priority)
	}

	if filter.AssignedTo != nil {
		q.where("assigned_to = %s", *filter.AssignedTo)
	}

	if filter.Search != nil {
		pattern := "%" + likeEscaper.Replace(*filter.Search) + "%"
		title := dialect.ContainsFold("title", "%s")
		description := dialect.ContainsFold("description", "%s")
		q.where("("+title+" OR "+description+")", pattern, pattern)
	}

	return q
}

// where appends a predicate. Each %s in clause is replaced by the placeholder
// of the matching value.
func (q *taskQuery) where(clause string, values ...any) {
	for _, value := range values {
		q.args = append(q.args, value)
		clause = strings.Replace(clause, "%s", q.dialect.Placeholder(len(q.args)), 1)
	}

	q.predicates = append(q.predicates, clause)
}

// SQL renders the statement.
func (q *taskQuery) SQL() string {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	sb.WriteString(taskColumns)
	sb.WriteString(" FROM tasks")

	if len(q.predicates) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(q.predicates, " AND "))
	}

	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	return sb.String()
}

// Args returns the bound values in placeholder order.
func (q *taskQuery) Args() []any {
	return q.args
}
