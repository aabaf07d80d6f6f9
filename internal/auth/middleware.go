package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/config"
)

const principalKey = "principal"

// Principal is the authenticated caller. OrgID is the organization the token
// was issued for.
type Principal struct {
	UserID string
	OrgID  int64
}

type Middleware struct {
	secret []byte
	logger *zap.Logger
}

func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		secret: []byte(cfg.AuthJWTSecret),
		logger: logger,
	}
}

// Handler accepts HS256 bearer tokens issued by the auth service. Tokens must
// carry sub and org_id.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		principal, err := m.Verify(tokenString)
		if err != nil {
			m.logger.Debug("auth_token_rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

var errMissingClaims = errors.New("missing claims")

// Verify checks the signature and expiry and extracts the principal.
func (m *Middleware) Verify(tokenString string) (Principal, error) {
	if len(m.secret) == 0 {
		return Principal{}, errors.New("auth secret not configured")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, err
	}

	sub, _ := claims.GetSubject()
	orgID, err := orgIDClaim(claims["org_id"])
	if sub == "" || err != nil {
		return Principal{}, errMissingClaims
	}

	return Principal{UserID: sub, OrgID: orgID}, nil
}

// orgIDClaim accepts the id as a string or a JSON number.
func orgIDClaim(v any) (int64, error) {
	switch id := v.(type) {
	case string:
		return strconv.ParseInt(id, 10, 64)
	case float64:
		if id != float64(int64(id)) {
			return 0, fmt.Errorf("org_id %v is not an integer", id)
		}
		return int64(id), nil
	default:
		return 0, errMissingClaims
	}
}

// FromContext returns the principal set by Handler.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
