package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errMissingToken = errors.New("missing bearer token")

// Authenticator verifies HS256 bearer tokens whose subject is the caller's user ID.
type Authenticator struct {
	secret []byte
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator. The secret must not be empty.
func NewAuthenticator(secret string, logger *slog.Logger) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &Authenticator{secret: []byte(secret), logger: logger}, nil
}

// Middleware rejects requests without a valid token and stores the owner ID in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := a.authenticate(r)
		if err != nil {
			LoggerFrom(r.Context(), a.logger).Debug("authentication failed",
				slog.String("error", err.Error()),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication credentials were not provided or are invalid")
			return
		}
		ctx := WithOwnerID(r.Context(), ownerID)
		ctx = WithLogger(ctx, LoggerFrom(ctx, a.logger).With(slog.String("owner_id", ownerID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, errMissingToken
	}

	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, errors.New("invalid token claims")
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil || ownerID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return ownerID, nil
}

// WithOwnerID returns a context carrying the authenticated owner ID.
func WithOwnerID(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// GetOwnerID retrieves the authenticated owner ID from context.
func GetOwnerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ownerIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
