package firebase

import (
	"context"
	"fmt"
	"strings"
)

const devTokenPrefix = "dev:"

// DevTokenVerifier accepts tokens of the form "dev:<uid>". It is only wired
// when the service runs on the memory backend, for local runs without a
// Firebase project.
type DevTokenVerifier struct{}

func (DevTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, ok := strings.CutPrefix(token, devTokenPrefix)
	if !ok || uid == "" || strings.ContainsAny(uid, " /") {
		return "", fmt.Errorf("not a development token")
	}
	return uid, nil
}

// DevToken builds the token DevTokenVerifier accepts for uid.
func DevToken(uid string) string {
	return devTokenPrefix + uid
}
