// Package bincode implements the non-canonical interop encoding: u64
// little-endian lengths, u32 variant indices, unverified map ordering.
package bincode

import (
	"math"

	"github.com/roach88/serdegen/runtime/golang/serde"
)

// MaxSequenceLength bounds every length prefix.
const MaxSequenceLength = (1 << 31) - 1

type Serializer struct {
	serde.BinarySerializer
}

func NewSerializer() *Serializer {
	s := new(Serializer)
	s.BinarySerializer = *serde.NewBinarySerializer(math.MaxUint64)
	return s
}

func (s *Serializer) SerializeStr(value string) error {
	return s.BinarySerializer.SerializeStr(value, s.SerializeLen)
}

func (s *Serializer) SerializeBytes(value []byte) error {
	return s.BinarySerializer.SerializeBytes(value, s.SerializeLen)
}

func (s *Serializer) SerializeLen(value uint64) error {
	if value > MaxSequenceLength {
		return serde.NewError(serde.IntegerOverflow, "length %d exceeds %d", value, MaxSequenceLength)
	}
	return s.SerializeU64(value)
}

func (s *Serializer) SerializeVariantIndex(value uint32) error {
	return s.SerializeU32(value)
}

// SortMapEntries sorts entries by their bytes so a Go map encodes the same
// way on every call. Decoders accept any order.
func (s *Serializer) SortMapEntries(offsets []uint64) {
	s.SortEntries(offsets)
}

type Deserializer struct {
	serde.BinaryDeserializer
}

func NewDeserializer(input []byte) *Deserializer {
	return &Deserializer{*serde.NewBinaryDeserializer(input, math.MaxUint64)}
}

func (d *Deserializer) DeserializeBytes() ([]byte, error) {
	return d.BinaryDeserializer.DeserializeBytes(d.DeserializeLen)
}

func (d *Deserializer) DeserializeStr() (string, error) {
	return d.BinaryDeserializer.DeserializeStr(d.DeserializeLen)
}

func (d *Deserializer) DeserializeLen() (uint64, error) {
	value, err := d.DeserializeU64()
	if err != nil {
		return 0, err
	}
	if value > MaxSequenceLength {
		return 0, serde.NewError(serde.IntegerOverflow, "length %d exceeds %d", value, MaxSequenceLength)
	}
	return value, nil
}

func (d *Deserializer) DeserializeVariantIndex() (uint32, error) {
	return d.DeserializeU32()
}

// CheckThatKeySlicesAreIncreasing accepts any key order.
func (d *Deserializer) CheckThatKeySlicesAreIncreasing(key1, key2 serde.Slice) error {
	return nil
}
