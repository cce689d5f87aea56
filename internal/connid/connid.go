// Package connid generates the opaque per-connection identifiers viewers
// are known by. IDs are UUIDv7 values encoded as 26-character Crockford
// base32 strings: time-sortable in logs, safe to echo back to clients.
package connid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// idLen is the base32 length of 128 bits at 5 bits per character
const idLen = 26

// RandSource supplies the random tail bytes, for deterministic tests
type RandSource interface {
	IntN(n int) int
}

// Generator produces connection IDs with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator; a nil RandSource uses crypto/rand
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// New creates a connection ID from the entropy pool
func New() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new connection ID
func (g *Generator) Generate() string {
	return encodeBase32(g.uuidv7())
}

// uuidv7 builds a 128-bit UUIDv7: 48-bit millisecond timestamp, then random
// bytes with the version and variant bits forced.
func (g *Generator) uuidv7() [16]byte {
	var uuid [16]byte

	g.fill(uuid[6:])

	now := uint64(time.Now().UnixMilli())
	binary.BigEndian.PutUint16(uuid[0:2], uint16(now>>32))
	binary.BigEndian.PutUint32(uuid[2:6], uint32(now))

	// Version 7, variant 10.
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return uuid
}

func (g *Generator) fill(p []byte) {
	if g.randSource == nil {
		if _, err := rand.Read(p); err != nil {
			panic("failed to generate random bytes: " + err.Error())
		}
		return
	}
	for i := range p {
		p[i] = byte(g.randSource.IntN(256))
	}
}

// encodeBase32 encodes 128 bits as 26 base32 characters, most significant
// bits first, zero-padded at the tail
func encodeBase32(data [16]byte) string {
	var out strings.Builder
	out.Grow(idLen)

	acc, pending := uint32(0), 0
	for _, b := range data {
		acc = acc<<8 | uint32(b)
		pending += 8
		for pending >= 5 {
			pending -= 5
			out.WriteByte(alphabet[(acc>>pending)&0x1f])
		}
	}
	// 128 = 25*5 + 3: the last three bits pad out to a 26th character.
	out.WriteByte(alphabet[(acc<<(5-pending))&0x1f])

	return out.String()
}

// Validate checks that an ID is 26 valid base32 characters
func Validate(id string) error {
	if len(id) != idLen {
		return fmt.Errorf("connection ID must be exactly %d characters, got %d", idLen, len(id))
	}
	// 26 characters hold 130 bits; the leading two must be zero for the ID
	// to fit 128, which caps the first character at '7'.
	if id[0] > '7' {
		return fmt.Errorf("connection ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
