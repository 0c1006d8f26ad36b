package wmscontext

import (
	"context"
	"errors"
)

var (
	ErrUserIDNotFoundInContext        = errors.New("user ID not found in context")
	ErrUserRolesNotFoundInContext     = errors.New("user roles not found in context")
	ErrTokenNotFoundInContext         = errors.New("token not found in context")
	ErrCorrelationIDNotFoundInContext = errors.New("correlation ID not found in context")
)

type (
	userIDContextKey        struct{}
	userRolesContextKey     struct{}
	tokenContextKey         struct{}
	correlationIDContextKey struct{}
)

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey{}).(string)
	if !ok || userID == "" {
		return "", ErrUserIDNotFoundInContext
	}
	return userID, nil
}

// SetUserIDInContext stores the user ID in the context.
func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// GetUserRolesFromContext retrieves the user roles from the context.
func GetUserRolesFromContext(ctx context.Context) ([]string, error) {
	roles, ok := ctx.Value(userRolesContextKey{}).([]string)
	if !ok {
		return nil, ErrUserRolesNotFoundInContext
	}
	return roles, nil
}

// SetUserRolesInContext stores the user roles in the context.
func SetUserRolesInContext(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, userRolesContextKey{}, roles)
}

// GetTokenFromContext retrieves the raw bearer token from the context.
func GetTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || token == "" {
		return "", ErrTokenNotFoundInContext
	}
	return token, nil
}

// SetTokenInContext stores the raw bearer token in the context.
func SetTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// GetCorrelationIDFromContext retrieves the request correlation ID from the context.
func GetCorrelationIDFromContext(ctx context.Context) (string, error) {
	correlationID, ok := ctx.Value(correlationIDContextKey{}).(string)
	if !ok || correlationID == "" {
		return "", ErrCorrelationIDNotFoundInContext
	}
	return correlationID, nil
}

// SetCorrelationIDInContext stores the request correlation ID in the context.
func SetCorrelationIDInContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey{}, correlationID)
}
