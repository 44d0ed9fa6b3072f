package middleware

import (
	"net/http"
	"strings"

	"student-report-service/internal/models"
	"student-report-service/internal/services"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "authClaims"

// AuthenticateUser validates the Bearer token and stores its claims in the
// request context
func AuthenticateUser(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be a Bearer token"})
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// GetClaims returns the authenticated user's claims, or nil when the request
// did not pass AuthenticateUser
func GetClaims(c *gin.Context) *models.Claims {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetRequester returns the authenticated user's identity for ownership checks
func GetRequester(c *gin.Context) models.Requester {
	claims := GetClaims(c)
	if claims == nil {
		return models.Requester{}
	}
	return models.Requester{UserID: claims.UserID, Role: claims.Role}
}
