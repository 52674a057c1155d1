package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
)

type contextKey int

const viewerKey contextKey = iota

// getViewer extracts the viewer from context. Nil is anonymous.
func getViewer(ctx context.Context) *platform.User {
	v, _ := ctx.Value(viewerKey).(*platform.User)
	return v
}

func withViewer(ctx context.Context, viewer *platform.User) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

// ViewerResolver resolves the acting user.
type ViewerResolver interface {
	ResolveAPIKey(ctx context.Context, token string) (*platform.User, error)
	GetUser(ctx context.Context, id int64) (*platform.User, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver ViewerResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			viewer, err := resolver.ResolveAPIKey(ctx, token)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			return next(withViewer(ctx, viewer), method, req)
		}
	}
}

// defaultViewerMiddleware acts as a fixed user when auth is disabled, or
// anonymously when defaultUserID is 0.
func defaultViewerMiddleware(resolver ViewerResolver, defaultUserID int64, logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if defaultUserID == 0 {
				return next(ctx, method, req)
			}
			viewer, err := resolver.GetUser(ctx, defaultUserID)
			if err != nil {
				logger.Warn("default viewer lookup failed, serving anonymously", "user_id", defaultUserID, "error", err)
				return next(ctx, method, req)
			}
			return next(withViewer(ctx, viewer), method, req)
		}
	}
}
