package room

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

// Room codes are the human-entered join keys: uppercase alphanumeric,
// 4 to 10 characters. The game mode is always an explicit room field,
// never inferred from the code.
var codePattern = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

const (
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	generatedCodeLen = 6
)

// NormalizeCode uppercases and validates a caller-supplied room code.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(code) {
		return "", apperr.Validation("room code must be 4-10 uppercase letters or digits")
	}
	return code, nil
}

// GenerateCode draws a 6-character code from an alphabet with the
// easily-confused characters removed.
func GenerateCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(generatedCodeLen)
	for i := 0; i < generatedCodeLen; i++ {
		b.WriteByte(codeAlphabet[rng.Intn(len(codeAlphabet))])
	}
	return b.String()
}
