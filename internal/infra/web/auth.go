package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/infra/logging"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	RoleDonor = "donor"
	RoleAdmin = "admin"
)

type AuthConfig struct {
	HMACSecret []byte
	Issuer     string
}

type AuthManager struct {
	cfg AuthConfig
	log *zerolog.Logger
	dev bool
}

func NewAuthManager(secret string) *AuthManager {
	nop := zerolog.Nop()
	return &AuthManager{
		cfg: AuthConfig{
			HMACSecret: []byte(secret),
			Issuer:     "foodflow",
		},
		log: &nop,
	}
}

// WithLogger logs rejected tokens to logger. Outside dev the token is
// redacted.
func (a *AuthManager) WithLogger(logger *zerolog.Logger, dev bool) *AuthManager {
	a.log = logger
	a.dev = dev
	return a
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint signs an HS256 token for subject with role, valid for ttl.
func (a *AuthManager) Mint(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.cfg.HMACSecret)
}

// ParseFromRequest reads "Authorization: Bearer <jwt>" and returns the
// verified claims along with the raw token. The raw token is also returned
// when verification fails.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*Claims, string, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil, "", errors.New("missing token")
	}
	raw := strings.TrimSpace(hdr[7:])
	claims, err := a.parse(raw)
	if err != nil {
		return nil, raw, err
	}
	return claims, raw, nil
}

func (a *AuthManager) parse(tok string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token without subject")
	}
	return claims, nil
}

type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Role    string
	Token   string
}

func principalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Require rejects requests without a valid token (401) or whose role is not
// listed (403).
func (a *AuthManager) Require(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, raw, err := a.ParseFromRequest(r)
			if err != nil {
				if raw != "" {
					l := logging.With(r.Context(), a.log)
					l.Warn().Err(err).Str("token", logging.Redact(raw, a.dev)).Msg("rejected bearer token")
				}
				writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized, "")
				return
			}
			if len(roles) > 0 && !hasRole(claims.Role, roles) {
				a.log.Debug().Str("subject", claims.Subject).Str("role", claims.Role).Msg("role not allowed")
				writeError(w, http.StatusForbidden, domain.ErrForbidden, "")
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, Principal{Subject: claims.Subject, Role: claims.Role, Token: raw})
			ctx = logging.WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
