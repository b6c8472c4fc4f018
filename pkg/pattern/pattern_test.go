package pattern

import (
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyWithSegment returns a 32-byte key with seg overwritten by the 8 given
// bytes. The other segments are filled with 0xAA so they can never satisfy
// the sign-extension rule by accident.
func keyWithSegment(t *testing.T, seg int, segment []byte) []byte {
	t.Helper()
	require.Len(t, segment, 8)
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = 0xAA
	}
	copy(key[seg*SegmentSize:], segment)
	return key
}

func TestImmediatePositiveSegment(t *testing.T) {
	// 12 34 56 78 00 00 00 00 -> i32 0x78563412 = 2018915346
	key := keyWithSegment(t, 0, []byte{0x12, 0x34, 0x56, 0x78, 0x00, 0x00, 0x00, 0x00})

	m, ok := NewImmediate().Eval(key)
	require.True(t, ok)
	assert.Equal(t, 0, m.Segment)
	assert.Equal(t, -1, m.Offset)
}

func TestImmediateNegativeSegment(t *testing.T) {
	// 12 34 56 80 FF FF FF FF -> i32 0x80563412, sign-extends cleanly
	key := keyWithSegment(t, 2, []byte{0x12, 0x34, 0x56, 0x80, 0xFF, 0xFF, 0xFF, 0xFF})

	m, ok := NewImmediate().Eval(key)
	require.True(t, ok)
	assert.Equal(t, 2, m.Segment)
}

func TestImmediateMismatchedHighBytes(t *testing.T) {
	cases := map[string][]byte{
		"positive low with FF high": {0x12, 0x34, 0x56, 0x78, 0xFF, 0xFF, 0xFF, 0xFF},
		"negative low with 00 high": {0x12, 0x34, 0x56, 0x80, 0x00, 0x00, 0x00, 0x00},
		"one stray byte":            {0x12, 0x34, 0x56, 0x78, 0x00, 0x00, 0x01, 0x00},
	}
	for name, segment := range cases {
		t.Run(name, func(t *testing.T) {
			key := keyWithSegment(t, 0, segment)
			_, ok := NewImmediate().Eval(key)
			assert.False(t, ok)
		})
	}
}

func TestImmediateFirstSegmentWins(t *testing.T) {
	// Segments 1 and 3 both match; the fixed ascending scan must report 1.
	key := keyWithSegment(t, 1, []byte{1, 2, 3, 4, 0, 0, 0, 0})
	copy(key[3*SegmentSize:], []byte{5, 6, 7, 0x90, 0xFF, 0xFF, 0xFF, 0xFF})

	m, ok := NewImmediate().Eval(key)
	require.True(t, ok)
	assert.Equal(t, 1, m.Segment)
}

func TestImmediateEverySegmentPosition(t *testing.T) {
	for seg := 0; seg < 4; seg++ {
		key := keyWithSegment(t, seg, []byte{0xDE, 0xAD, 0xBE, 0x01, 0x00, 0x00, 0x00, 0x00})
		m, ok := NewImmediate().Eval(key)
		require.True(t, ok, "segment %d", seg)
		assert.Equal(t, seg, m.Segment)
	}
}

func TestImmediateRandomFiller(t *testing.T) {
	// Property check: a controlled matching window must be found no matter
	// what the other bytes are, and the reported segment can never be
	// later than the controlled one.
	for i := 0; i < 200; i++ {
		key := make([]byte, KeySize)
		_, err := rand.Read(key)
		require.NoError(t, err)
		copy(key[2*SegmentSize:], []byte{9, 9, 9, 9, 0, 0, 0, 0})

		m, ok := NewImmediate().Eval(key)
		require.True(t, ok)
		assert.LessOrEqual(t, m.Segment, 2)
	}
}

func TestVanityPrefix(t *testing.T) {
	want := []byte{0x11, 0x22, 0x33}
	p, err := NewPrefix(base58.Encode(want))
	require.NoError(t, err)

	key := make([]byte, KeySize)
	copy(key, want)
	m, ok := p.Eval(key)
	require.True(t, ok)
	assert.Equal(t, 0, m.Offset)
	assert.Equal(t, -1, m.Segment)

	key[1] ^= 0x01
	_, ok = p.Eval(key)
	assert.False(t, ok)
}

func TestVanitySuffix(t *testing.T) {
	want := []byte{0xCA, 0xFE}
	p, err := NewSuffix(base58.Encode(want))
	require.NoError(t, err)

	key := make([]byte, KeySize)
	copy(key[KeySize-len(want):], want)
	m, ok := p.Eval(key)
	require.True(t, ok)
	assert.Equal(t, KeySize-2, m.Offset)

	key[KeySize-1] = 0x00
	_, ok = p.Eval(key)
	assert.False(t, ok)
}

func TestVanityContains(t *testing.T) {
	want := []byte{0x01, 0x02, 0x03, 0x04}
	p, err := NewContains(base58.Encode(want))
	require.NoError(t, err)

	for _, offset := range []int{0, 13, KeySize - len(want)} {
		key := make([]byte, KeySize)
		for i := range key {
			key[i] = 0xEE
		}
		copy(key[offset:], want)
		m, ok := p.Eval(key)
		require.True(t, ok, "offset %d", offset)
		assert.Equal(t, offset, m.Offset)
	}

	_, ok := p.Eval(make([]byte, KeySize))
	assert.False(t, ok)
}

func TestVanityAt(t *testing.T) {
	want := []byte{0x55, 0x66}
	p, err := NewAt(10, base58.Encode(want))
	require.NoError(t, err)

	key := make([]byte, KeySize)
	copy(key[10:], want)
	m, ok := p.Eval(key)
	require.True(t, ok)
	assert.Equal(t, 10, m.Offset)

	// Same bytes at a different offset must not match.
	key = make([]byte, KeySize)
	copy(key[11:], want)
	_, ok = p.Eval(key)
	assert.False(t, ok)
}

func TestEvalIsPure(t *testing.T) {
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	patterns := []Pattern{NewImmediate()}
	p, err := NewPrefix(base58.Encode(key[:2]))
	require.NoError(t, err)
	patterns = append(patterns, p)

	for _, p := range patterns {
		m1, ok1 := p.Eval(key)
		m2, ok2 := p.Eval(key)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, m1, m2)
	}
}

func TestConstructionValidation(t *testing.T) {
	t.Run("empty pattern", func(t *testing.T) {
		_, err := NewPrefix("")
		assert.Error(t, err)
	})

	t.Run("pattern longer than key", func(t *testing.T) {
		_, err := NewPrefix(base58.Encode(make([]byte, 33)))
		assert.Error(t, err)
	})

	t.Run("33 bytes rejected, 32 accepted", func(t *testing.T) {
		raw := make([]byte, 32)
		for i := range raw {
			raw[i] = byte(i + 1)
		}
		_, err := NewPrefix(base58.Encode(raw))
		assert.NoError(t, err)
	})

	t.Run("at overruns key end", func(t *testing.T) {
		_, err := NewAt(30, base58.Encode([]byte{1, 2, 3}))
		assert.Error(t, err)
	})

	t.Run("at negative offset", func(t *testing.T) {
		_, err := NewAt(-1, base58.Encode([]byte{1}))
		assert.Error(t, err)
	})

	t.Run("at last valid offset", func(t *testing.T) {
		_, err := NewAt(31, base58.Encode([]byte{1}))
		assert.NoError(t, err)
	})

	t.Run("invalid base58 characters", func(t *testing.T) {
		_, err := NewPrefix("0OIl")
		assert.Error(t, err)
	})
}

func TestPatternString(t *testing.T) {
	assert.Equal(t, "immediate", NewImmediate().String())

	p, err := NewPrefix("abc")
	require.NoError(t, err)
	assert.Equal(t, "prefix:abc", p.String())

	p, err = NewAt(5, "abc")
	require.NoError(t, err)
	assert.Equal(t, "at:5:abc", p.String())
}
