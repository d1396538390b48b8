package embedded

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
)

type kind int

const (
	kindText kind = iota
	kindTime
	kindBool
)

type column struct {
	name     string
	kind     kind
	nullable bool
	enum     []string
}

// table describes one row-level-secured table
type table struct {
	name     string
	columns  []column
	required []string
	defaults backend.Row
	// visible is a predicate over the table's columns; every ? is bound to the caller's uid
	visible string
}

func (t *table) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (t *table) columnList() string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}

// visibleArgs binds uid to each placeholder of the visibility predicate
func (t *table) visibleArgs(uid string) []any {
	n := strings.Count(t.visible, "?")
	args := make([]any, n)
	for i := range args {
		args[i] = uid
	}
	return args
}

func serverColumns(cols ...column) []column {
	out := []column{{name: "id", kind: kindText}}
	out = append(out, cols...)
	return append(out,
		column{name: "created_at", kind: kindTime},
		column{name: "updated_at", kind: kindTime},
	)
}

func statuses[S ~string](values []S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var tables = map[string]*table{
	models.TableProfiles: {
		name: models.TableProfiles,
		columns: serverColumns(
			column{name: "full_name", kind: kindText, nullable: true},
			column{name: "avatar_url", kind: kindText, nullable: true},
		),
		required: []string{"id"},
		visible:  "id = ?",
	},
	models.TableProjects: {
		name: models.TableProjects,
		columns: serverColumns(
			column{name: "name", kind: kindText},
			column{name: "description", kind: kindText, nullable: true},
			column{name: "status", kind: kindText, enum: statuses(models.ProjectStatuses)},
			column{name: "start_date", kind: kindTime, nullable: true},
			column{name: "end_date", kind: kindTime, nullable: true},
			column{name: "owner_id", kind: kindText},
		),
		required: []string{"name", "owner_id"},
		defaults: backend.Row{"status": string(models.ProjectActive)},
		visible:  "owner_id = ?",
	},
	models.TableTasks: {
		name: models.TableTasks,
		columns: serverColumns(
			column{name: "title", kind: kindText},
			column{name: "description", kind: kindText, nullable: true},
			column{name: "status", kind: kindText, enum: statuses(models.TaskStatuses)},
			column{name: "due_date", kind: kindTime, nullable: true},
			column{name: "assigned_to", kind: kindText, nullable: true},
			column{name: "project_id", kind: kindText, nullable: true},
		),
		required: []string{"title"},
		defaults: backend.Row{"status": string(models.TaskTodo)},
		visible:  "(assigned_to = ? OR project_id IN (SELECT id FROM projects WHERE owner_id = ?))",
	},
	models.TableEvents: {
		name: models.TableEvents,
		columns: serverColumns(
			column{name: "title", kind: kindText},
			column{name: "description", kind: kindText, nullable: true},
			column{name: "start_time", kind: kindTime},
			column{name: "end_time", kind: kindTime},
			column{name: "all_day", kind: kindBool},
			column{name: "owner_id", kind: kindText},
			column{name: "project_id", kind: kindText, nullable: true},
		),
		required: []string{"title", "start_time", "end_time", "owner_id"},
		defaults: backend.Row{"all_day": false},
		visible:  "owner_id = ?",
	},
}

func lookupTable(name string) (*table, error) {
	t, ok := tables[name]
	if !ok {
		return nil, backend.NewError(backend.CodeInvalidRequest, fmt.Sprintf("relation %q does not exist", name))
	}
	return t, nil
}

func invalid(format string, args ...any) error {
	return backend.NewError(backend.CodeInvalidRequest, fmt.Sprintf(format, args...))
}

// toSQL converts an incoming value into its stored representation
func (c column) toSQL(v any) (any, error) {
	if v == nil {
		if !c.nullable {
			return nil, invalid("null value in column %q violates not-null constraint", c.name)
		}
		return nil, nil
	}

	switch c.kind {
	case kindBool:
		switch b := v.(type) {
		case bool:
			if b {
				return 1, nil
			}
			return 0, nil
		case string:
			switch b {
			case "true":
				return 1, nil
			case "false":
				return 0, nil
			}
		}
		return nil, invalid("invalid boolean for column %q: %v", c.name, v)

	case kindTime:
		t, err := parseTime(v)
		if err != nil {
			return nil, invalid("invalid timestamp for column %q: %v", c.name, v)
		}
		return t.UTC().Format(timeLayout), nil

	default:
		s, ok := v.(string)
		if !ok {
			return nil, invalid("invalid text for column %q: %v", c.name, v)
		}
		if len(c.enum) > 0 && !slices.Contains(c.enum, s) {
			return nil, invalid("invalid input value for %s: %q", c.name, s)
		}
		return s, nil
	}
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, models.DateLayout} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %v", v)
}

// scanDest returns a destination suitable for the column's stored kind
func (c column) scanDest() any {
	if c.kind == kindBool {
		return new(sql.NullInt64)
	}
	return new(sql.NullString)
}

// fromSQL converts a scanned destination into its row value
func (c column) fromSQL(dest any) any {
	switch d := dest.(type) {
	case *sql.NullInt64:
		return d.Valid && d.Int64 != 0
	case *sql.NullString:
		if !d.Valid {
			return nil
		}
		return d.String
	}
	return nil
}
