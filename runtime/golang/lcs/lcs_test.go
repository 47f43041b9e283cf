package lcs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/runtime/golang/serde"
)

var (
	_ serde.Serializer   = (*Serializer)(nil)
	_ serde.Deserializer = (*Deserializer)(nil)
)

func TestSerializeLen_Uleb128(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{MaxSequenceLength, []byte{0xff, 0xff, 0xff, 0xff, 0x07}},
	}
	for _, tt := range tests {
		s := NewSerializer()
		require.NoError(t, s.SerializeLen(tt.value))
		assert.Equal(t, tt.want, s.GetBytes(), "value %d", tt.value)

		d := NewDeserializer(tt.want)
		got, err := d.DeserializeLen()
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
		require.NoError(t, d.CheckEnd())
	}
}

func TestSerializeLen_TooLong(t *testing.T) {
	s := NewSerializer()
	err := s.SerializeLen(MaxSequenceLength + 1)
	assert.ErrorIs(t, err, serde.ErrIntegerOverflow)
}

func TestDeserializeLen_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"non-minimal zero", []byte{0x80, 0x00}, serde.ErrNonMinimalEncoding},
		{"non-minimal one", []byte{0x81, 0x00}, serde.ErrNonMinimalEncoding},
		{"above max length", []byte{0x80, 0x80, 0x80, 0x80, 0x08}, serde.ErrIntegerOverflow},
		{"above u32", []byte{0xff, 0xff, 0xff, 0xff, 0x1f}, serde.ErrIntegerOverflow},
		{"six bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, serde.ErrIntegerOverflow},
		{"truncated", []byte{0x80}, serde.ErrUnexpectedEndOfInput},
		{"empty", []byte{}, serde.ErrUnexpectedEndOfInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeserializer(tt.input)
			_, err := d.DeserializeLen()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVariantIndex_FullU32Range(t *testing.T) {
	s := NewSerializer()
	require.NoError(t, s.SerializeVariantIndex(math.MaxUint32))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, s.GetBytes())

	d := NewDeserializer(s.GetBytes())
	got, err := d.DeserializeVariantIndex()
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)
}

func TestSortMapEntries(t *testing.T) {
	// {2: 20, 1: 10} written in that order
	s := NewSerializer()
	require.NoError(t, s.SerializeLen(2))
	offsets := make([]uint64, 0, 2)
	for _, kv := range [][2]uint8{{2, 20}, {1, 10}} {
		offsets = append(offsets, s.GetBufferOffset())
		require.NoError(t, s.SerializeU8(kv[0]))
		require.NoError(t, s.SerializeU8(kv[1]))
	}
	s.SortMapEntries(offsets)
	assert.Equal(t, []byte{0x02, 0x01, 0x0a, 0x02, 0x14}, s.GetBytes())
}

func TestSortMapEntries_VariableWidthKeys(t *testing.T) {
	s := NewSerializer()
	offsets := make([]uint64, 0, 3)
	for _, key := range []string{"bb", "a", "ab"} {
		offsets = append(offsets, s.GetBufferOffset())
		require.NoError(t, s.SerializeStr(key))
		require.NoError(t, s.SerializeBool(true))
	}
	s.SortMapEntries(offsets)
	// "a" has the shortest length prefix, then "ab" before "bb"
	assert.Equal(t, []byte{
		0x01, 'a', 0x01,
		0x02, 'a', 'b', 0x01,
		0x02, 'b', 'b', 0x01,
	}, s.GetBytes())
}

func TestCheckThatKeySlicesAreIncreasing(t *testing.T) {
	d := NewDeserializer([]byte{0x01, 0x02, 0x01})
	first := serde.Slice{Start: 0, End: 1}
	second := serde.Slice{Start: 1, End: 2}
	third := serde.Slice{Start: 2, End: 3}

	assert.NoError(t, d.CheckThatKeySlicesAreIncreasing(first, second))
	assert.ErrorIs(t, d.CheckThatKeySlicesAreIncreasing(second, third), serde.ErrMapNotSorted)
	assert.ErrorIs(t, d.CheckThatKeySlicesAreIncreasing(first, third), serde.ErrDuplicateKey)
}

func TestDeserializeStr(t *testing.T) {
	s := NewSerializer()
	require.NoError(t, s.SerializeStr("héllo"))

	d := NewDeserializer(s.GetBytes())
	got, err := d.DeserializeStr()
	require.NoError(t, err)
	assert.Equal(t, "héllo", got)

	d = NewDeserializer([]byte{0x02, 0xc3, 0x28})
	_, err = d.DeserializeStr()
	assert.ErrorIs(t, err, serde.ErrInvalidUtf8)

	d = NewDeserializer([]byte{0x05, 'a'})
	_, err = d.DeserializeStr()
	assert.ErrorIs(t, err, serde.ErrUnexpectedEndOfInput)
}

func TestContainerDepth(t *testing.T) {
	d := NewDeserializer(nil)
	for i := 0; i < MaxContainerDepth; i++ {
		require.NoError(t, d.IncreaseContainerDepth())
	}
	assert.ErrorIs(t, d.IncreaseContainerDepth(), serde.ErrMaxDepthExceeded)
	d.DecreaseContainerDepth()
	assert.NoError(t, d.IncreaseContainerDepth())
}
