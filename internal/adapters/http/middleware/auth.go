package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"taskledger/internal/adapters/http/dto"
	"taskledger/internal/domain"
)

// actorKey is the context key under which the authenticated actor is stored.
type actorKey struct{}

// ActorFromContext extracts the authenticated actor from the context.
// The second return value is false when no actor is stored, which means the
// request did not pass through the Auth middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// WithActor returns a new context with the given actor stored in it.
// Exported for handler tests that bypass the middleware.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// actorClaims is the expected bearer token payload. The subject is the user
// id asserted by the external identity provider; admin marks the global
// administrator flag. Name claims follow the OIDC standard claim names.
type actorClaims struct {
	jwt.RegisteredClaims
	Admin      bool   `json:"admin,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

// Auth returns middleware that authenticates requests via an HS256-signed
// bearer token and stores the resulting actor in the request context.
// Requests without a valid token receive an RFC 9457 401 response; token
// contents are never logged.
func Auth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, r, "missing or malformed authorization header")
				return
			}

			actor, err := authenticate(parser, token, secret)
			if err != nil {
				logger.WarnContext(r.Context(), "authentication failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				writeUnauthorized(w, r, "invalid token")
				return
			}

			ctx := WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// authenticate parses and verifies the token, mapping its claims to an actor.
func authenticate(parser *jwt.Parser, token, secret string) (domain.Actor, error) {
	claims := &actorClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Actor{}, err
	}
	if !parsed.Valid {
		return domain.Actor{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Actor{}, errors.New("subject claim required")
	}

	return domain.Actor{
		UserID:    claims.Subject,
		Admin:     claims.Admin,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	}, nil
}

// writeUnauthorized writes an RFC 9457 401 response. Authentication failures
// are not domain errors, so the dto error mapping is bypassed.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	resp := dto.ErrorResponse{
		Type:     "about:blank",
		Title:    http.StatusText(http.StatusUnauthorized),
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: r.RequestURI,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(resp)
}
