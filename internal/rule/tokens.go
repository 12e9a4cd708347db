package rule

import (
	"crypto/sha256"
	"encoding/hex"
)

// charsPerToken is the approximate average characters per token for the
// tokenizers the rule corpus targets. TokenBudget comparisons are advisory,
// so a rough estimate is enough.
const charsPerToken = 4

// EstimateTokens estimates the token count of a markdown body.
func EstimateTokens(body string) int {
	if body == "" {
		return 0
	}
	estimate := len(body) / charsPerToken
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// ContentHash computes the sha256 hex digest of the raw file content. Used to
// detect changed rules without re-parsing during reindexing.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
