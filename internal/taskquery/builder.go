package taskquery

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// DateLayout is the only accepted format for date filters.
const DateLayout = "2006-01-02"

const (
	table   = "tasks"
	columns = "id, title, description, completed, priority, user_id, created_at"
)

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Filter holds the optional list filters. Zero values mean "not filtered";
// Page and Limit are normalized by Build.
type Filter struct {
	Completed *bool  `json:"completed,omitempty"`
	Priority  string `json:"priority,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

// Normalize applies pagination defaults and bounds. Page is capped so that
// (Page-1)*Limit cannot overflow; the capped page is still far past any
// real result set and yields an empty page.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if maxPage := math.MaxInt / f.Limit; f.Page > maxPage {
		f.Page = maxPage
	}
	return f
}

// Offset returns the number of rows skipped before the current page.
func (f Filter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.Limit
}

// CacheKey returns a deterministic serialization of the normalized filter.
// Identical filter values always produce the same string and different
// values never do.
func (f Filter) CacheKey() string {
	// Marshalling a struct of scalars cannot fail.
	b, _ := json.Marshal(f.Normalize())
	return string(b)
}

// Statement is a parameterized SQL statement.
type Statement struct {
	SQL  string
	Args []any
}

// ListStatements is the pair of statements needed to serve one page.
// Data and Count share the same WHERE clause and leading arguments.
type ListStatements struct {
	Data   Statement
	Count  Statement
	Where  string
	Page   int
	Limit  int
	Offset int
}

// predicates accumulates conjunctive conditions with dialect-specific
// placeholders.
type predicates struct {
	d       Dialect
	clauses []string
	args    []any
}

func (p *predicates) add(column, op string, arg any) {
	p.args = append(p.args, arg)
	p.clauses = append(p.clauses, column+" "+op+" "+p.d.Placeholder(len(p.args)))
}

func (p *predicates) next(arg any) string {
	p.args = append(p.args, arg)
	return p.d.Placeholder(len(p.args))
}

func (p *predicates) where() string {
	return strings.Join(p.clauses, " AND ")
}

// Build translates a filter into the data and count statements for userID.
// Malformed dates or priorities are reported as *domain.ValidationError
// before anything touches the store.
func Build(d Dialect, userID uuid.UUID, f Filter) (ListStatements, error) {
	f = f.Normalize()

	start, end, err := f.bounds()
	if err != nil {
		return ListStatements{}, err
	}

	p := &predicates{d: d}
	p.add("user_id", "=", userID)
	if f.Completed != nil {
		p.add("completed", "=", d.Bool(*f.Completed))
	}
	if f.Priority != "" {
		p.add("priority", "=", f.Priority)
	}
	if start != nil {
		p.add("created_at", ">=", d.Time(*start))
	}
	if end != nil {
		p.add("created_at", "<=", d.Time(*end))
	}

	where := p.where()
	countArgs := append([]any(nil), p.args...)
	offset := (f.Page - 1) * f.Limit

	limitMark := p.next(f.Limit)
	offsetMark := p.next(offset)

	data := "SELECT " + columns + " FROM " + table + " WHERE " + where +
		" ORDER BY created_at DESC, id DESC LIMIT " + limitMark + " OFFSET " + offsetMark
	count := "SELECT COUNT(*) FROM " + table + " WHERE " + where

	return ListStatements{
		Data:   Statement{SQL: data, Args: p.args},
		Count:  Statement{SQL: count, Args: countArgs},
		Where:  where,
		Page:   f.Page,
		Limit:  f.Limit,
		Offset: offset,
	}, nil
}

// Validate reports malformed date or priority filters without building
// anything.
func (f Filter) Validate() error {
	_, _, err := f.bounds()
	return err
}

func (f Filter) bounds() (*time.Time, *time.Time, error) {
	start, end, err := parseDateRange(f.StartDate, f.EndDate)
	if err != nil {
		return nil, nil, err
	}
	if f.Priority != "" && !domain.Priority(f.Priority).IsValid() {
		return nil, nil, domain.NewValidationError("priority",
			"Invalid priority. Use low, medium or high.", domain.ErrInvalidFormat)
	}
	return start, end, nil
}

// parseDateRange validates the date filters and expands them to the first
// and last second of their calendar days in UTC.
func parseDateRange(startDate, endDate string) (*time.Time, *time.Time, error) {
	var start, end *time.Time

	if startDate != "" {
		day, err := parseDate("startDate", startDate)
		if err != nil {
			return nil, nil, err
		}
		start = &day
	}

	if endDate != "" {
		day, err := parseDate("endDate", endDate)
		if err != nil {
			return nil, nil, err
		}
		last := day.Add(24*time.Hour - time.Second)
		end = &last
	}

	return start, end, nil
}

func parseDate(field, value string) (time.Time, error) {
	if !dateRegex.MatchString(value) {
		return time.Time{}, invalidDate(field)
	}
	day, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, invalidDate(field)
	}
	return day, nil
}

func invalidDate(field string) error {
	return domain.NewValidationError(field,
		"Invalid "+field+" format. Use YYYY-MM-DD.", domain.ErrInvalidFormat)
}

// SelectByID builds the lookup of one task scoped to its owner.
func SelectByID(d Dialect, id, userID uuid.UUID) Statement {
	p := &predicates{d: d}
	p.add("id", "=", id)
	p.add("user_id", "=", userID)
	return Statement{
		SQL:  "SELECT " + columns + " FROM " + table + " WHERE " + p.where(),
		Args: p.args,
	}
}

// Insert builds the statement creating task.
func Insert(d Dialect, task *domain.Task) Statement {
	p := &predicates{d: d}
	marks := []string{
		p.next(task.ID),
		p.next(task.Title),
		p.next(task.Description),
		p.next(d.Bool(task.Completed)),
		p.next(string(task.Priority)),
		p.next(task.UserID),
		p.next(d.Time(task.CreatedAt)),
	}
	return Statement{
		SQL:  "INSERT INTO " + table + " (" + columns + ") VALUES (" + strings.Join(marks, ", ") + ")",
		Args: p.args,
	}
}

// BuildUpdate builds an UPDATE touching only the provided fields of the task
// identified by id and owned by userID.
func BuildUpdate(d Dialect, id, userID uuid.UUID, u domain.TaskUpdate) (Statement, error) {
	if u.IsEmpty() {
		return Statement{}, domain.NewValidationError("", "at least one field must be provided", nil)
	}

	p := &predicates{d: d}
	var sets []string
	if u.Title != nil {
		sets = append(sets, "title = "+p.next(*u.Title))
	}
	if u.Description != nil {
		sets = append(sets, "description = "+p.next(*u.Description))
	}
	if u.Completed != nil {
		sets = append(sets, "completed = "+p.next(d.Bool(*u.Completed)))
	}
	if u.Priority != nil {
		sets = append(sets, "priority = "+p.next(string(*u.Priority)))
	}

	p.add("id", "=", id)
	p.add("user_id", "=", userID)

	return Statement{
		SQL:  "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + p.where(),
		Args: p.args,
	}, nil
}

// Delete builds the removal of one task scoped to its owner.
func Delete(d Dialect, id, userID uuid.UUID) Statement {
	p := &predicates{d: d}
	p.add("id", "=", id)
	p.add("user_id", "=", userID)
	return Statement{
		SQL:  "DELETE FROM " + table + " WHERE " + p.where(),
		Args: p.args,
	}
}

// BuildStats builds the aggregate returning total, completed and pending
// counts for userID.
func BuildStats(d Dialect, userID uuid.UUID) Statement {
	p := &predicates{d: d}
	p.add("user_id", "=", userID)
	done := p.next(d.Bool(true))
	open := p.next(d.Bool(false))
	return Statement{
		SQL: "SELECT COUNT(*)," +
			" COALESCE(SUM(CASE WHEN completed = " + done + " THEN 1 ELSE 0 END), 0)," +
			" COALESCE(SUM(CASE WHEN completed = " + open + " THEN 1 ELSE 0 END), 0)" +
			" FROM " + table + " WHERE " + p.where(),
		Args: p.args,
	}
}
