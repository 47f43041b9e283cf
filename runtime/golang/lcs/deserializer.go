package lcs

import (
	"bytes"
	"math"

	"github.com/roach88/serdegen/runtime/golang/serde"
)

type Deserializer struct {
	serde.BinaryDeserializer
}

func NewDeserializer(input []byte) *Deserializer {
	return &Deserializer{*serde.NewBinaryDeserializer(input, MaxContainerDepth)}
}

func (d *Deserializer) DeserializeBytes() ([]byte, error) {
	return d.BinaryDeserializer.DeserializeBytes(d.DeserializeLen)
}

func (d *Deserializer) DeserializeStr() (string, error) {
	return d.BinaryDeserializer.DeserializeStr(d.DeserializeLen)
}

func (d *Deserializer) DeserializeLen() (uint64, error) {
	value, err := d.deserializeUleb128AsU32()
	if err != nil {
		return 0, err
	}
	if value > MaxSequenceLength {
		return 0, serde.NewError(serde.IntegerOverflow, "length %d exceeds %d", value, MaxSequenceLength)
	}
	return uint64(value), nil
}

func (d *Deserializer) DeserializeVariantIndex() (uint32, error) {
	return d.deserializeUleb128AsU32()
}

// CheckThatKeySlicesAreIncreasing requires key2 to sort strictly after key1.
func (d *Deserializer) CheckThatKeySlicesAreIncreasing(key1, key2 serde.Slice) error {
	switch bytes.Compare(d.Input[key1.Start:key1.End], d.Input[key2.Start:key2.End]) {
	case 0:
		return serde.NewError(serde.DuplicateKey, "map key repeated at offset %d", key2.Start)
	case 1:
		return serde.NewError(serde.MapNotSorted, "map key at offset %d is out of order", key2.Start)
	}
	return nil
}

func (d *Deserializer) deserializeUleb128AsU32() (uint32, error) {
	var value uint64
	for shift := 0; shift < 32; shift += 7 {
		b, err := d.Buffer.ReadByte()
		if err != nil {
			return 0, serde.NewError(serde.UnexpectedEndOfInput, "reading ULEB128")
		}
		digit := b & 0x7f
		value |= uint64(digit) << shift
		if value > math.MaxUint32 {
			return 0, serde.NewError(serde.IntegerOverflow, "ULEB128 value does not fit in u32")
		}
		if b&0x80 == 0 {
			if digit == 0 && shift > 0 {
				return 0, serde.NewError(serde.NonMinimalEncoding, "ULEB128 has a trailing zero group")
			}
			return uint32(value), nil
		}
	}
	return 0, serde.NewError(serde.IntegerOverflow, "ULEB128 longer than 5 bytes")
}
