package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
)

// Predicate is a parameterised SQL condition written against the aliased table
// of one entity (see EntityAlias). Conditions use ? placeholders and are rebound
// to postgres positional parameters by the repository that renders them.
type Predicate struct {
	Cond string
	Args []interface{}
}

// Match builds a predicate from a condition and its arguments.
func Match(cond string, args ...interface{}) Predicate {
	return Predicate{Cond: cond, Args: args}
}

// And joins predicates with AND. Empty predicates are skipped.
func (p Predicate) And(others ...Predicate) Predicate {
	parts := make([]string, 0, len(others)+1)
	args := make([]interface{}, 0, len(p.Args))
	if p.Cond != "" {
		parts = append(parts, p.Cond)
		args = append(args, p.Args...)
	}
	for _, o := range others {
		if o.Cond == "" {
			continue
		}
		parts = append(parts, o.Cond)
		args = append(args, o.Args...)
	}
	if len(parts) == 1 {
		return Predicate{Cond: parts[0], Args: args}
	}
	for i := range parts {
		parts[i] = "(" + parts[i] + ")"
	}
	return Predicate{Cond: strings.Join(parts, " AND "), Args: args}
}

// Or joins predicates with OR.
func Or(preds ...Predicate) Predicate {
	parts := make([]string, 0, len(preds))
	var args []interface{}
	for _, p := range preds {
		if p.Cond == "" {
			continue
		}
		parts = append(parts, "("+p.Cond+")")
		args = append(args, p.Args...)
	}
	return Predicate{Cond: strings.Join(parts, " OR "), Args: args}
}

// Empty reports whether the predicate has no condition. Scoped repositories
// refuse to run with an empty predicate.
func (p Predicate) Empty() bool {
	return strings.TrimSpace(p.Cond) == ""
}

// Clause renders the predicate with $n placeholders starting after argOffset.
func (p Predicate) Clause(argOffset int) (string, []interface{}) {
	var b strings.Builder
	n := argOffset
	for _, r := range p.Cond {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), p.Args
}

// ErrUnscoped is returned when a scoped query is attempted without a predicate.
var ErrUnscoped = fmt.Errorf("scoped query without predicate")

type entityTable struct {
	table string
	alias string
}

var entityTables = map[models.EntityType]entityTable{
	models.EntityClass:        {"classes", "c"},
	models.EntityLesson:       {"lessons", "l"},
	models.EntityAssessment:   {"assessments", "a"},
	models.EntitySubmission:   {"assessment_submissions", "s"},
	models.EntityAttendance:   {"attendance", "at"},
	models.EntityNotification: {"notifications", "n"},
	models.EntityMessage:      {"messages", "m"},
	models.EntityStudent:      {"student_profiles", "sp"},
	models.EntityEnrollment:   {"class_enrollments", "e"},
	models.EntityAccount:      {"users", "u"},
}

// EntityAlias returns the table alias scoped queries use for entity.
func EntityAlias(entity models.EntityType) string {
	return entityTables[entity].alias
}

// ScopeRepository answers generic questions about scoped rows.
type ScopeRepository struct {
	db *sqlx.DB
}

// NewScopeRepository creates a new instance of ScopeRepository.
func NewScopeRepository(db *sqlx.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

// Exists reports whether the row id of entity is inside the predicate.
func (r *ScopeRepository) Exists(ctx context.Context, entity models.EntityType, pred Predicate, id string) (bool, error) {
	ref, ok := entityTables[entity]
	if !ok {
		return false, fmt.Errorf("unknown entity %q", entity)
	}
	if pred.Empty() {
		return false, ErrUnscoped
	}
	cond, args := pred.Clause(1)
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s %s WHERE %s.id = $1 AND %s)", ref.table, ref.alias, ref.alias, cond)
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, append([]interface{}{id}, args...)...); err != nil {
		return false, fmt.Errorf("scope exists %s: %w", entity, err)
	}
	return exists, nil
}

// Count returns the number of rows of entity inside the predicate.
func (r *ScopeRepository) Count(ctx context.Context, entity models.EntityType, pred Predicate) (int, error) {
	ref, ok := entityTables[entity]
	if !ok {
		return 0, fmt.Errorf("unknown entity %q", entity)
	}
	if pred.Empty() {
		return 0, ErrUnscoped
	}
	cond, args := pred.Clause(0)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s WHERE %s", ref.table, ref.alias, cond)
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("scope count %s: %w", entity, err)
	}
	return total, nil
}

// AttendanceRate returns the share of PRESENT or LATE rows among the visible
// attendance rows, or 0 when there are none.
func (r *ScopeRepository) AttendanceRate(ctx context.Context, pred Predicate) (float64, error) {
	if pred.Empty() {
		return 0, ErrUnscoped
	}
	cond, args := pred.Clause(0)
	query := "SELECT COALESCE(AVG(CASE WHEN at.status IN ('PRESENT','LATE') THEN 1.0 ELSE 0.0 END), 0) FROM attendance at WHERE " + cond
	var rate float64
	if err := r.db.GetContext(ctx, &rate, query, args...); err != nil {
		return 0, fmt.Errorf("attendance rate: %w", err)
	}
	return rate, nil
}

// listQuery assembles the SELECT and COUNT statements shared by scoped list methods.
func listQuery(columns string, entity models.EntityType, pred Predicate, order string, limit, offset int) (string, string, []interface{}) {
	ref := entityTables[entity]
	cond, args := pred.Clause(0)
	from := fmt.Sprintf("FROM %s %s WHERE %s", ref.table, ref.alias, cond)
	list := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", columns, from, order, limit, offset)
	count := "SELECT COUNT(*) " + from
	return list, count, args
}
