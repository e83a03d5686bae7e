package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

// ByteGenerator streams HMAC-SHA256 bytes keyed by a canonical description of
// whatever is being randomized (a template, a grid, a team). The salt names the
// kind of draw and the modifier separates repeated draws of the same kind.
type ByteGenerator struct {
	key          string
	salt         string
	modifier     int64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a new byte generator positioned at cursor
func NewByteGenerator(key, salt string, modifier int64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		key:          key,
		salt:         salt,
		modifier:     modifier,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}

	bg.generateRound()

	return bg
}

// Next returns the next byte from the generator
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat generates the next float in [0, 1) using exactly 4 bytes
func (bg *ByteGenerator) NextFloat() float64 {
	b0 := bg.Next()
	b1 := bg.Next()
	b2 := bg.Next()
	b3 := bg.Next()

	return bytesToFloat([4]byte{b0, b1, b2, b3})
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.key))
	message := fmt.Sprintf("%s:%d:%d", bg.salt, bg.modifier, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// Intn returns a reproducible index in [0, n). It returns 0 when n <= 1.
func Intn(key, salt string, modifier int64, n int) int {
	if n <= 1 {
		return 0
	}
	f := NewByteGenerator(key, salt, modifier, 0).NextFloat()
	i := int(math.Floor(f * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

// HexColor derives a stable "#rrggbb" color from key.
func HexColor(key string) string {
	bg := NewByteGenerator(key, "color", 0, 0)
	return fmt.Sprintf("#%02x%02x%02x", bg.Next(), bg.Next(), bg.Next())
}
