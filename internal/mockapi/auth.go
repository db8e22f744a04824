package mockapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

const userIDKey = "user_id"

// IssueToken signs a token for userID valid for ttl.
func (s *Server) IssueToken(userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     s.now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) authenticate(ctx *gin.Context) {
	header := ctx.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Missing authorization token"})
		return
	}

	userID, err := s.parseToken(raw)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid token", Details: []string{err.Error()}})
		return
	}
	ctx.Set(userIDKey, userID)
	ctx.Next()
}

func (s *Server) parseToken(raw string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	id := assessment.NormalizeID(claims["user_id"])
	if id == "" {
		return "", fmt.Errorf("invalid user id in token")
	}
	return id, nil
}
