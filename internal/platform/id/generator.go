package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator returns hex-encoded random tokens.
type RandomGenerator struct {
	size int
}

func NewRandomGenerator(size int) *RandomGenerator {
	if size < 8 {
		size = 8
	}
	return &RandomGenerator{size: size}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, g.size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// UUIDGenerator returns random v4 UUIDs for members, matches and frames.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// TeamIDs builds public team identifiers of the form "<slug>-<token>".
type TeamIDs struct {
	tokens Generator
}

func NewTeamIDs(tokens Generator) *TeamIDs {
	if tokens == nil {
		tokens = NewRandomGenerator(10)
	}
	return &TeamIDs{tokens: tokens}
}

func (g *TeamIDs) NewTeamID(name string) (string, string, error) {
	slug := Slug(name)
	token, err := g.tokens.NewID()
	if err != nil {
		return "", "", err
	}
	return slug + "-" + token, slug, nil
}

// Slug lowercases ASCII letters and digits and collapses everything else to single hyphens.
func Slug(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "team"
	}
	return b.String()
}

// AccessCode returns a numeric code with the given number of digits.
func AccessCode(digits int) (string, error) {
	if digits < 1 {
		digits = 4
	}
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("read random digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
