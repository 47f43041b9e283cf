package serde

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("decode Foo: %w", NewError(MapNotSorted, "offset %d", 3))
	assert.True(t, errors.Is(err, ErrMapNotSorted))
	assert.False(t, errors.Is(err, ErrDuplicateKey))
	assert.Equal(t, "decode Foo: MapNotSorted: offset 3", err.Error())
}

func TestParseErrorKind(t *testing.T) {
	for kind := InvalidTag; kind <= UnexpectedEndOfInput; kind++ {
		got, ok := ParseErrorKind(kind.String())
		require.True(t, ok, kind.String())
		assert.Equal(t, kind, got)
	}
	_, ok := ParseErrorKind("Nope")
	assert.False(t, ok)
}

func TestBinarySerializer_FixedWidth(t *testing.T) {
	s := NewBinarySerializer(10)
	require.NoError(t, s.SerializeU32(1))
	require.NoError(t, s.SerializeI16(-2))
	require.NoError(t, s.SerializeU128(Uint128{High: 1, Low: 2}))
	assert.Equal(t, []byte{
		1, 0, 0, 0,
		0xfe, 0xff,
		2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0,
	}, s.GetBytes())

	d := NewBinaryDeserializer(s.GetBytes(), 10)
	u, err := d.DeserializeU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), u)
	i, err := d.DeserializeI16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i)
	big128, err := d.DeserializeU128()
	require.NoError(t, err)
	assert.Equal(t, Uint128{High: 1, Low: 2}, big128)
	assert.NoError(t, d.CheckEnd())
}

func TestBinaryDeserializer_OptionTag(t *testing.T) {
	d := NewBinaryDeserializer([]byte{0, 1, 2}, 10)
	v, err := d.DeserializeOptionTag()
	require.NoError(t, err)
	assert.False(t, v)
	v, err = d.DeserializeOptionTag()
	require.NoError(t, err)
	assert.True(t, v)
	_, err = d.DeserializeOptionTag()
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestBinaryDeserializer_TrailingBytes(t *testing.T) {
	d := NewBinaryDeserializer([]byte{1, 2}, 10)
	_, err := d.DeserializeU8()
	require.NoError(t, err)
	assert.ErrorIs(t, d.CheckEnd(), ErrTrailingBytes)
	assert.Equal(t, uint64(1), d.GetBufferOffset())
}

func TestInt128_BigRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "-1", "170141183460469231731687303715884105727", "-170141183460469231731687303715884105728"} {
		n, _ := new(big.Int).SetString(s, 10)
		v, ok := Int128FromBig(n)
		require.True(t, ok, s)
		assert.Equal(t, s, v.BigInt().String())
	}
	tooBig, _ := new(big.Int).SetString("170141183460469231731687303715884105728", 10)
	_, ok := Int128FromBig(tooBig)
	assert.False(t, ok)

	v, ok := Int128FromBig(big.NewInt(-1))
	require.True(t, ok)
	assert.Equal(t, Int128{High: -1, Low: ^uint64(0)}, v)
}

func TestUint128_BigRoundTrip(t *testing.T) {
	max, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	v, ok := Uint128FromBig(max)
	require.True(t, ok)
	assert.Equal(t, Uint128{High: ^uint64(0), Low: ^uint64(0)}, v)
	assert.Equal(t, max.String(), v.BigInt().String())
	_, ok = Uint128FromBig(big.NewInt(-1))
	assert.False(t, ok)
}
