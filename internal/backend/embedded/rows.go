package embedded

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/tgienger/pmdash/internal/backend"
)

var sqlOps = map[backend.Op]string{
	backend.OpEq:  "=",
	backend.OpNeq: "<>",
	backend.OpGt:  ">",
	backend.OpGte: ">=",
	backend.OpLt:  "<",
	backend.OpLte: "<=",
}

// where builds the visibility predicate for uid followed by the filters
func (t *table) where(uid string, filters []backend.Filter) (string, []any, error) {
	clauses := []string{t.visible}
	args := t.visibleArgs(uid)

	for _, f := range filters {
		c, ok := t.column(f.Column)
		if !ok {
			return "", nil, invalid("column %s.%s does not exist", t.name, f.Column)
		}
		if f.Op == backend.OpIs {
			if f.Value != nil {
				return "", nil, invalid("is filter on %q only supports null", f.Column)
			}
			clauses = append(clauses, c.name+" IS NULL")
			continue
		}
		op, ok := sqlOps[f.Op]
		if !ok {
			return "", nil, invalid("unknown operator %q", f.Op)
		}
		v, err := c.toSQL(f.Value)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, c.name+" "+op+" ?")
		args = append(args, v)
	}
	return strings.Join(clauses, " AND "), args, nil
}

func (t *table) scan(rows *sql.Rows) ([]backend.Row, error) {
	var out []backend.Row
	for rows.Next() {
		dest := make([]any, len(t.columns))
		for i, c := range t.columns {
			dest[i] = c.scanDest()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(backend.Row, len(t.columns))
		for i, c := range t.columns {
			row[c.name] = c.fromSQL(dest[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (db *DB) query(ctx context.Context, q querier, t *table, uid string, query backend.Query) ([]backend.Row, error) {
	where, args, err := t.where(uid, query.Filters)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s", t.columnList(), t.name, where)
	if query.Order != nil {
		if _, ok := t.column(query.Order.Column); !ok {
			return nil, invalid("column %s.%s does not exist", t.name, query.Order.Column)
		}
		dir := "DESC"
		if query.Order.Ascending {
			dir = "ASC"
		}
		stmt += fmt.Sprintf(" ORDER BY %s %s", query.Order.Column, dir)
	}
	if query.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return t.scan(rows)
}

// fetchVisible returns the row with id if uid may see it
func (db *DB) fetchVisible(ctx context.Context, q querier, t *table, uid, id string) (backend.Row, error) {
	rows, err := db.query(ctx, q, t, uid, backend.Where(backend.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, backend.ErrRowSecurity
	}
	return rows[0], nil
}

// Select returns the rows of table visible to uid
func (db *DB) Select(ctx context.Context, uid, tableName string, q backend.Query) ([]backend.Row, error) {
	t, err := lookupTable(tableName)
	if err != nil {
		return nil, err
	}
	rows, err := db.query(ctx, db.DB, t, uid, q)
	if err != nil {
		return nil, mapErr(err)
	}
	if rows == nil {
		rows = []backend.Row{}
	}
	return rows, nil
}

// Insert stores row on behalf of uid and returns the canonical stored row
func (db *DB) Insert(ctx context.Context, uid, tableName string, row backend.Row) (backend.Row, error) {
	t, err := lookupTable(tableName)
	if err != nil {
		return nil, err
	}

	values := backend.Row{}
	for k, v := range t.defaults {
		values[k] = v
	}
	for k, v := range row {
		if _, ok := t.column(k); !ok {
			return nil, invalid("column %s.%s does not exist", t.name, k)
		}
		if k == "created_at" || k == "updated_at" {
			continue
		}
		values[k] = v
	}
	if id, _ := values["id"].(string); id == "" {
		values["id"] = uuid.NewString()
	}
	for _, name := range t.required {
		if v, ok := values[name]; !ok || v == nil {
			return nil, invalid("null value in column %q violates not-null constraint", name)
		}
	}

	now := db.timestamp()
	cols := []string{"created_at", "updated_at"}
	args := []any{now, now}
	for _, name := range sortedKeys(values) {
		c, _ := t.column(name)
		v, err := c.toSQL(values[name])
		if err != nil {
			return nil, err
		}
		cols = append(cols, name)
		args = append(args, v)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	var stored backend.Row
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
		stored, err = db.fetchVisible(ctx, tx, t, uid, values["id"].(string))
		return err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return stored, nil
}

// Update patches the single row matching filters that uid may see
func (db *DB) Update(ctx context.Context, uid, tableName string, patch backend.Row, filters ...backend.Filter) (backend.Row, error) {
	t, err := lookupTable(tableName)
	if err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{db.timestamp()}
	for _, name := range sortedKeys(patch) {
		c, ok := t.column(name)
		if !ok {
			return nil, invalid("column %s.%s does not exist", t.name, name)
		}
		switch name {
		case "id", "created_at", "updated_at":
			continue
		}
		v, err := c.toSQL(patch[name])
		if err != nil {
			return nil, err
		}
		sets = append(sets, name+" = ?")
		args = append(args, v)
	}

	where, whereArgs, err := t.where(uid, filters)
	if err != nil {
		return nil, err
	}

	var updated backend.Row
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		ids, err := matchingIDs(ctx, tx, t, where, whereArgs)
		if err != nil {
			return err
		}
		switch len(ids) {
		case 0:
			return backend.ErrNotFound
		case 1:
		default:
			return backend.ErrMultipleRows
		}

		stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))
		if _, err := tx.ExecContext(ctx, stmt, append(args, ids[0])...); err != nil {
			return err
		}
		updated, err = db.fetchVisible(ctx, tx, t, uid, ids[0])
		return err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return updated, nil
}

// Delete removes every row matching filters that uid may see
func (db *DB) Delete(ctx context.Context, uid, tableName string, filters ...backend.Filter) error {
	t, err := lookupTable(tableName)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return invalid("delete on %s requires a filter", t.name)
	}

	where, args, err := t.where(uid, filters)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", t.name, where), args...)
	return mapErr(err)
}

func matchingIDs(ctx context.Context, q querier, t *table, where string, args []any) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s WHERE %s LIMIT 2", t.name, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func sortedKeys(row backend.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mapErr converts driver errors into platform errors
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var be *backend.Error
	if errors.As(err, &be) {
		return err
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return backend.Wrap(backend.CodeInvalidRequest, se.Error(), err)
	}
	return backend.Wrap(backend.CodeInternal, err.Error(), err)
}
