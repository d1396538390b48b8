package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/pmdash/internal/backend"
)

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

func (c *Client) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	var rows []backend.Row
	if err := c.do(ctx, http.MethodGet, tablePath(table), backend.EncodeQuery(q), nil, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []backend.Row{}
	}
	return rows, nil
}

func (c *Client) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	var rows []backend.Row
	if err := c.do(ctx, http.MethodPost, tablePath(table), nil, []backend.Row{row}, &rows); err != nil {
		return nil, err
	}
	return single(rows)
}

func (c *Client) Update(ctx context.Context, table string, patch backend.Row, filters ...backend.Filter) (backend.Row, error) {
	var rows []backend.Row
	if err := c.do(ctx, http.MethodPatch, tablePath(table), backend.EncodeFilters(filters), patch, &rows); err != nil {
		return nil, err
	}
	return single(rows)
}

func (c *Client) Delete(ctx context.Context, table string, filters ...backend.Filter) error {
	return c.do(ctx, http.MethodDelete, tablePath(table), backend.EncodeFilters(filters), nil, nil)
}

func single(rows []backend.Row) (backend.Row, error) {
	switch len(rows) {
	case 0:
		return nil, backend.ErrNotFound
	case 1:
		return rows[0], nil
	}
	return nil, backend.ErrMultipleRows
}
