package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/pmdash/internal/backend"
)

func (h *handlers) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// abort writes err as an error body and stops the chain
func abort(ctx *gin.Context, err error) {
	var be *backend.Error
	if !errors.As(err, &be) {
		be = backend.Wrap(backend.CodeInternal, "internal server error", err)
	}
	ctx.AbortWithStatusJSON(be.Code.HTTPStatus(), backend.ErrorBody{Code: be.Code, Message: be.Message})
}

func (h *handlers) fail(ctx *gin.Context, err error) {
	var be *backend.Error
	if !errors.As(err, &be) || be.Code == backend.CodeInternal {
		h.logger.Printf("%s %s: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	}
	abort(ctx, err)
}

func bindPassword(ctx *gin.Context) (backend.PasswordRequest, bool) {
	var req backend.PasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abort(ctx, backend.Wrap(backend.CodeInvalidRequest, "invalid request body", err))
		return req, false
	}
	return req, true
}

func (h *handlers) signUp(ctx *gin.Context) {
	req, ok := bindPassword(ctx)
	if !ok {
		return
	}

	user, err := h.db.CreateUser(ctx.Request.Context(), req.Email, req.Password, req.Data)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (h *handlers) token(ctx *gin.Context) {
	if grant := ctx.Query("grant_type"); grant != "password" {
		abort(ctx, backend.NewError(backend.CodeInvalidRequest, "unsupported grant_type "+grant))
		return
	}
	req, ok := bindPassword(ctx)
	if !ok {
		return
	}

	user, err := h.db.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	session, err := h.tokens.Issue(*user)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, backend.TokenResponse{
		AccessToken: session.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(time.Until(session.ExpiresAt).Seconds()),
		ExpiresAt:   session.ExpiresAt.Unix(),
		User:        session.User,
	})
}

// logout is stateless: tokens simply expire
func (h *handlers) logout(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

func (h *handlers) user(ctx *gin.Context) {
	user, err := h.db.GetUser(ctx.Request.Context(), currentUserID(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (h *handlers) selectRows(ctx *gin.Context) {
	q, err := backend.ParseQuery(ctx.Request.URL.Query())
	if err != nil {
		abort(ctx, err)
		return
	}

	rows, err := h.db.Select(ctx.Request.Context(), currentUserID(ctx), ctx.Param("table"), q)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rows)
}

// insertRow accepts a single object or an array holding exactly one
func (h *handlers) insertRow(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		abort(ctx, backend.Wrap(backend.CodeInvalidRequest, "invalid request body", err))
		return
	}

	var row backend.Row
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []backend.Row
		if err := json.Unmarshal(trimmed, &rows); err != nil || len(rows) != 1 {
			abort(ctx, backend.NewError(backend.CodeInvalidRequest, "expected exactly one row"))
			return
		}
		row = rows[0]
	} else if err := json.Unmarshal(trimmed, &row); err != nil {
		abort(ctx, backend.Wrap(backend.CodeInvalidRequest, "invalid request body", err))
		return
	}

	stored, err := h.db.Insert(ctx.Request.Context(), currentUserID(ctx), ctx.Param("table"), row)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, []backend.Row{stored})
}

func (h *handlers) updateRow(ctx *gin.Context) {
	q, err := backend.ParseQuery(ctx.Request.URL.Query())
	if err != nil {
		abort(ctx, err)
		return
	}
	var patch backend.Row
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		abort(ctx, backend.Wrap(backend.CodeInvalidRequest, "invalid request body", err))
		return
	}

	row, err := h.db.Update(ctx.Request.Context(), currentUserID(ctx), ctx.Param("table"), patch, q.Filters...)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, []backend.Row{row})
}

func (h *handlers) deleteRows(ctx *gin.Context) {
	q, err := backend.ParseQuery(ctx.Request.URL.Query())
	if err != nil {
		abort(ctx, err)
		return
	}

	if err := h.db.Delete(ctx.Request.Context(), currentUserID(ctx), ctx.Param("table"), q.Filters...); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
