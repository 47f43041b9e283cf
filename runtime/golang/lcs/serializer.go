// Package lcs implements the canonical binary encoding: ULEB128 length
// and variant prefixes, map entries sorted by their serialized bytes.
package lcs

import (
	"github.com/roach88/serdegen/runtime/golang/serde"
)

// MaxSequenceLength bounds every length prefix.
const MaxSequenceLength = (1 << 31) - 1

// MaxContainerDepth bounds nesting of named containers.
const MaxContainerDepth = 500

type Serializer struct {
	serde.BinarySerializer
}

func NewSerializer() *Serializer {
	s := new(Serializer)
	s.BinarySerializer = *serde.NewBinarySerializer(MaxContainerDepth)
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
	s.serializeU32AsUleb128(uint32(value))
	return nil
}

func (s *Serializer) SerializeVariantIndex(value uint32) error {
	s.serializeU32AsUleb128(value)
	return nil
}

// SortMapEntries sorts the entries starting at offsets by their bytes.
func (s *Serializer) SortMapEntries(offsets []uint64) {
	s.SortEntries(offsets)
}

func (s *Serializer) serializeU32AsUleb128(value uint32) {
	for value >= 0x80 {
		s.Buffer.WriteByte(byte(value&0x7f) | 0x80)
		value >>= 7
	}
	s.Buffer.WriteByte(byte(value))
}
