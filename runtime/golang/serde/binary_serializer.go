package serde

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
)

// BinarySerializer holds the encoding-independent part of a serializer.
// Encodings embed it and supply length and variant prefixes.
type BinarySerializer struct {
	Buffer               bytes.Buffer
	containerDepthBudget uint64
}

func NewBinarySerializer(maxContainerDepth uint64) *BinarySerializer {
	s := new(BinarySerializer)
	s.containerDepthBudget = maxContainerDepth
	return s
}

func (s *BinarySerializer) IncreaseContainerDepth() error {
	if s.containerDepthBudget == 0 {
		return NewError(MaxDepthExceeded, "exceeded maximum container depth")
	}
	s.containerDepthBudget--
	return nil
}

func (s *BinarySerializer) DecreaseContainerDepth() {
	s.containerDepthBudget++
}

// SerializeStr writes the length with serializeLen, then the UTF-8 bytes.
func (s *BinarySerializer) SerializeStr(value string, serializeLen func(uint64) error) error {
	return s.SerializeBytes([]byte(value), serializeLen)
}

// SerializeBytes writes the length with serializeLen, then the raw bytes.
func (s *BinarySerializer) SerializeBytes(value []byte, serializeLen func(uint64) error) error {
	if err := serializeLen(uint64(len(value))); err != nil {
		return err
	}
	s.Buffer.Write(value)
	return nil
}

func (s *BinarySerializer) SerializeBool(value bool) error {
	if value {
		return s.Buffer.WriteByte(1)
	}
	return s.Buffer.WriteByte(0)
}

func (s *BinarySerializer) SerializeUnit(value struct{}) error {
	return nil
}

func (s *BinarySerializer) SerializeF32(value float32) error {
	return s.SerializeU32(math.Float32bits(value))
}

func (s *BinarySerializer) SerializeF64(value float64) error {
	return s.SerializeU64(math.Float64bits(value))
}

func (s *BinarySerializer) SerializeU8(value uint8) error {
	return s.Buffer.WriteByte(value)
}

func (s *BinarySerializer) SerializeU16(value uint16) error {
	s.Buffer.Write(binary.LittleEndian.AppendUint16(nil, value))
	return nil
}

func (s *BinarySerializer) SerializeU32(value uint32) error {
	s.Buffer.Write(binary.LittleEndian.AppendUint32(nil, value))
	return nil
}

func (s *BinarySerializer) SerializeU64(value uint64) error {
	s.Buffer.Write(binary.LittleEndian.AppendUint64(nil, value))
	return nil
}

func (s *BinarySerializer) SerializeU128(value Uint128) error {
	_ = s.SerializeU64(value.Low)
	return s.SerializeU64(value.High)
}

func (s *BinarySerializer) SerializeI8(value int8) error {
	return s.SerializeU8(uint8(value))
}

func (s *BinarySerializer) SerializeI16(value int16) error {
	return s.SerializeU16(uint16(value))
}

func (s *BinarySerializer) SerializeI32(value int32) error {
	return s.SerializeU32(uint32(value))
}

func (s *BinarySerializer) SerializeI64(value int64) error {
	return s.SerializeU64(uint64(value))
}

func (s *BinarySerializer) SerializeI128(value Int128) error {
	_ = s.SerializeU64(value.Low)
	return s.SerializeI64(value.High)
}

func (s *BinarySerializer) SerializeOptionTag(value bool) error {
	return s.SerializeBool(value)
}

func (s *BinarySerializer) GetBufferOffset() uint64 {
	return uint64(s.Buffer.Len())
}

func (s *BinarySerializer) GetBytes() []byte {
	return s.Buffer.Bytes()
}

// SortEntries reorders the entries starting at offsets by their bytes.
// Keys are self-delimiting, so this orders entries by serialized key.
func (s *BinarySerializer) SortEntries(offsets []uint64) {
	if len(offsets) <= 1 {
		return
	}
	data := s.Buffer.Bytes()
	entries := make([][]byte, len(offsets))
	for i, start := range offsets {
		end := uint64(len(data))
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		entries[i] = append([]byte(nil), data[start:end]...)
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i], entries[j]) < 0
	})
	pos := offsets[0]
	for _, entry := range entries {
		copy(data[pos:], entry)
		pos += uint64(len(entry))
	}
}
