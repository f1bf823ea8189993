package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/observability/logging"
)

// ScopeAdmin gates every configuration and access-control route.
const ScopeAdmin = "admin"

type AuthConfig struct {
	HMACSecret string
	Issuer     string
	Audience   string
	ScopeClaim string
	ClockSkew  time.Duration
}

// Enabled reports whether admin routes require a bearer token.
func (c AuthConfig) Enabled() bool { return strings.TrimSpace(c.HMACSecret) != "" }

type scopesKey struct{}

// Authenticator validates HS256 bearer tokens and enforces scopes.
type Authenticator struct {
	cfg    AuthConfig
	secret []byte
	logger *slog.Logger
	nowFn  func() time.Time
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ScopeClaim == "" {
		cfg.ScopeClaim = "scope"
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
		logger: logger,
		nowFn:  time.Now,
	}
}

func (a *Authenticator) Middleware(requiredScopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			tokenString := extractBearer(header)
			if tokenString == "" {
				writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: "missing bearer token", RequestID: requestIDFrom(r.Context())})
				return
			}
			claims, err := a.parseToken(tokenString)
			if err == nil {
				err = validateClaims(claims, a.cfg.Issuer, a.cfg.Audience)
			}
			if err != nil {
				a.logger.Warn("token rejected",
					slog.String("error", err.Error()),
					logging.MaskField("authorization", header),
					slog.String("request_id", requestIDFrom(r.Context())))
				writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: "invalid token", RequestID: requestIDFrom(r.Context())})
				return
			}
			scopes := extractScopes(claims, a.cfg.ScopeClaim)
			if !hasScopes(scopes, requiredScopes) {
				writeJSON(w, http.StatusForbidden, ErrorBody{Error: "insufficient scope", RequestID: requestIDFrom(r.Context())})
				return
			}
			subject, _ := claims["sub"].(string)
			a.logger.Debug("admin token accepted",
				logging.MaskField("subject", subject),
				slog.String("request_id", requestIDFrom(r.Context())))
			ctx := context.WithValue(r.Context(), scopesKey{}, scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.cfg.ClockSkew), jwt.WithTimeFunc(a.nowFn))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func validateClaims(claims jwt.MapClaims, issuer, audience string) error {
	if issuer != "" {
		if value, ok := claims["iss"].(string); !ok || value != issuer {
			return errors.New("issuer mismatch")
		}
	}
	if audience != "" {
		switch val := claims["aud"].(type) {
		case string:
			if val != audience {
				return errors.New("audience mismatch")
			}
		case []interface{}:
			for _, entry := range val {
				if s, ok := entry.(string); ok && s == audience {
					return nil
				}
			}
			return errors.New("audience mismatch")
		default:
			return errors.New("audience missing")
		}
	}
	return nil
}

func extractScopes(claims jwt.MapClaims, scopeClaim string) []string {
	switch v := claims[scopeClaim].(type) {
	case string:
		return strings.Fields(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func hasScopes(scopes []string, required []string) bool {
	set := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		set[scope] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; !ok {
			return false
		}
	}
	return true
}

func extractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
