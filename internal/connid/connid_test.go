package connid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentzmp/rentz-server/internal/randutil"
)

func TestNewProducesValidIDs(t *testing.T) {
	t.Parallel()

	id := New()
	require.Len(t, id, 26)
	assert.NoError(t, Validate(id))
	assert.LessOrEqual(t, id[0], byte('7'))
}

func TestGenerateUnique(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		assert.False(t, ids[id], "duplicate ID %s", id)
		ids[id] = true
	}
}

func TestGenerateWithInjectedRand(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(randutil.New(1))
	id := gen.Generate()
	assert.NoError(t, Validate(id))
}

func TestValidateRejectsBadIDs(t *testing.T) {
	t.Parallel()

	assert.Error(t, Validate("short"))
	assert.Error(t, Validate("zzzzzzzzzzzzzzzzzzzzzzzzzz"), "first char out of range")
	assert.Error(t, Validate("0123456789abcdefghjkmnpqrO"), "invalid alphabet character")
}
