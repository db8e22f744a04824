package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

// ErrNoUserID is returned when a token carries no recognizable user claim.
var ErrNoUserID = errors.New("token has no user id claim")

// userClaimKeys are checked in order when extracting the user id.
var userClaimKeys = []string{"user_id", "userId", "id", "_id", "sub"}

// TokenSource supplies the bearer token attached to each request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// FileToken reads the token from a saved login file. The file holds either
// the user-info JSON written at login ({"token": "...", ...}) or a bare token.
// A missing file means "not logged in" and yields an empty token.
type FileToken struct {
	Path string
}

func (f FileToken) Token() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	var info struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(data, &info) == nil && info.Token != "" {
		return info.Token, nil
	}
	return strings.TrimSpace(string(data)), nil
}

// UserIDFromToken extracts the user id from a JWT without verifying its
// signature; verification is the server's job.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	for _, k := range userClaimKeys {
		if v, ok := claims[k]; ok {
			if id := assessment.NormalizeID(v); id != "" {
				return id, nil
			}
		}
	}
	return "", ErrNoUserID
}
