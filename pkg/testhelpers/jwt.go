// Package testhelpers provides utilities for testing Bidzilla web components.
package testhelpers

import (
	"encoding/base64"
	"fmt"
	"time"
)

// GenerateTestJWT creates an unsigned (alg: none) JWT shaped like the tokens
// the marketplace backend issues: {id, role, exp}. A zero exp omits the claim.
func GenerateTestJWT(userID int64, role string, exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"id":%d,"role":"%s"`, userID, role)
	if !exp.IsZero() {
		payload += fmt.Sprintf(`,"exp":%d`, exp.Unix())
	}
	payload += "}"

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}
