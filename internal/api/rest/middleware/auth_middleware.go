package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nexfit/billing-service/pkg/logger"
)

// ContextUserIDKey ключ контекста с ID аутентифицированного пользователя
const ContextUserIDKey = "userID"

const authHeaderPrefix = "Bearer "

// TokenClaims утверждения токена доступа платформы
type TokenClaims struct {
	Email string `json:"email"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTMiddleware проверяет токены доступа на защищенных маршрутах
type JWTMiddleware struct {
	secret  []byte
	enabled bool
	log     *logger.Logger
}

// NewJWTMiddleware создает новое middleware аутентификации
func NewJWTMiddleware(secret string, enabled bool, log *logger.Logger) *JWTMiddleware {
	return &JWTMiddleware{
		secret:  []byte(secret),
		enabled: enabled,
		log:     log,
	}
}

// RequireAuth проверяет токен и кладет ID пользователя в контекст запроса
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.abort(c, "missing authorization token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, authHeaderPrefix)
		claims, err := m.validate(tokenString)
		if err != nil {
			m.abort(c, err.Error())
			return
		}

		if claims.Subject == "" {
			m.abort(c, "user ID (sub) missing in token")
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Next()
	}
}

func (m *JWTMiddleware) validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.New("malformed token")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, errors.New("invalid token signature")
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, errors.New("token expired")
		default:
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

func (m *JWTMiddleware) abort(c *gin.Context, message string) {
	m.log.Warn("Authentication failed for %s: %s", c.Request.URL.Path, message)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
