package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/local/sensei/api/services"
)

const (
	RoleProfessor = "professor"
	RoleStudent   = "student"
)

// Claims are the JWT claims issued to platform users
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the claims on the context
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			abortUnauthenticated(c)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthenticated(c)
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// RequireRole rejects callers whose token lacks one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			abortUnauthenticated(c)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Caller lacks the required role",
			"kind":  services.KindUnauthenticated,
		})
	}
}

// ClaimsFrom returns the authenticated claims, or nil outside Auth
func ClaimsFrom(c *gin.Context) *Claims {
	value, ok := c.Get("claims")
	if !ok {
		return nil
	}
	claims, ok := value.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"kind":  services.KindUnauthenticated,
	})
}
