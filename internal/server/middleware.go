package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/backend/embedded"
)

// ContextUserKey holds the caller's user id ("" for anonymous)
const ContextUserKey = "uid"

func apiKey(key string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if key != "" && ctx.GetHeader("apikey") != key {
			abort(ctx, backend.NewError(backend.CodeNotAuthenticated, "invalid api key"))
			return
		}
		ctx.Next()
	}
}

// session resolves an optional bearer token into the caller's user id
func session(tokens *embedded.Tokens) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(ContextUserKey, "")

		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Next()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			abort(ctx, backend.NewError(backend.CodeNotAuthenticated, "authorization header format must be Bearer {token}"))
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			abort(ctx, err)
			return
		}

		ctx.Set(ContextUserKey, claims.Subject)
		ctx.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if currentUserID(ctx) == "" {
			abort(ctx, backend.ErrNotAuthenticated)
			return
		}
		ctx.Next()
	}
}

func currentUserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserKey)
}
