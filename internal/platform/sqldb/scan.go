package sqldb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/taskquery"
)

// flexBool scans a completion flag stored as a boolean or as 0/1.
type flexBool struct{ dst *bool }

func (b flexBool) Scan(src any) error {
	switch v := src.(type) {
	case bool:
		*b.dst = v
	case int64:
		*b.dst = v != 0
	case []byte:
		return b.parse(string(v))
	case string:
		return b.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into completed flag", src)
	}
	return nil
}

func (b flexBool) parse(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("cannot parse completed flag %q: %w", s, err)
	}
	*b.dst = v
	return nil
}

// flexTime scans a timestamp returned either as time.Time or as the SQLite
// text layout.
type flexTime struct{ dst *time.Time }

var textLayouts = []string{taskquery.SQLiteTimeLayout, time.RFC3339Nano}

func (t flexTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t.dst = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t flexTime) parse(s string) error {
	for _, layout := range textLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*t.dst = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one row in taskquery column order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		flexBool{&task.Completed},
		&priority,
		&task.UserID,
		flexTime{&task.CreatedAt},
	)
	if err != nil {
		return nil, err
	}
	task.Priority = domain.Priority(priority)
	return &task, nil
}
