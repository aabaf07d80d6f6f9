package testhelper

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueToken signs an HS256 access token the way the auth service does.
func IssueToken(t *testing.T, secret string, orgID int64, userID string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":    userID,
		"org_id": strconv.FormatInt(orgID, 10),
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
