package serde

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// BinaryDeserializer holds the encoding-independent part of a
// deserializer. Encodings embed it and supply length and variant prefixes.
type BinaryDeserializer struct {
	Buffer               *bytes.Reader
	Input                []byte
	containerDepthBudget uint64
}

func NewBinaryDeserializer(input []byte, maxContainerDepth uint64) *BinaryDeserializer {
	return &BinaryDeserializer{
		Buffer:               bytes.NewReader(input),
		Input:                input,
		containerDepthBudget: maxContainerDepth,
	}
}

func (d *BinaryDeserializer) IncreaseContainerDepth() error {
	if d.containerDepthBudget == 0 {
		return NewError(MaxDepthExceeded, "exceeded maximum container depth")
	}
	d.containerDepthBudget--
	return nil
}

func (d *BinaryDeserializer) DecreaseContainerDepth() {
	d.containerDepthBudget++
}

// DeserializeBytes reads a length with deserializeLen, then that many bytes.
func (d *BinaryDeserializer) DeserializeBytes(deserializeLen func() (uint64, error)) ([]byte, error) {
	length, err := deserializeLen()
	if err != nil {
		return nil, err
	}
	if length > uint64(d.Buffer.Len()) {
		return nil, NewError(UnexpectedEndOfInput, "need %d bytes, %d remaining", length, d.Buffer.Len())
	}
	ret := make([]byte, length)
	if _, err := io.ReadFull(d.Buffer, ret); err != nil {
		return nil, NewError(UnexpectedEndOfInput, "%v", err)
	}
	return ret, nil
}

// DeserializeStr is DeserializeBytes followed by a UTF-8 check.
func (d *BinaryDeserializer) DeserializeStr(deserializeLen func() (uint64, error)) (string, error) {
	raw, err := d.DeserializeBytes(deserializeLen)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", NewError(InvalidUtf8, "string is not valid UTF-8")
	}
	return string(raw), nil
}

func (d *BinaryDeserializer) DeserializeBool() (bool, error) {
	b, err := d.DeserializeU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, NewError(InvalidTag, "invalid bool byte %#02x", b)
	}
}

func (d *BinaryDeserializer) DeserializeUnit() (struct{}, error) {
	return struct{}{}, nil
}

func (d *BinaryDeserializer) DeserializeF32() (float32, error) {
	v, err := d.DeserializeU32()
	return math.Float32frombits(v), err
}

func (d *BinaryDeserializer) DeserializeF64() (float64, error) {
	v, err := d.DeserializeU64()
	return math.Float64frombits(v), err
}

func (d *BinaryDeserializer) DeserializeU8() (uint8, error) {
	b, err := d.Buffer.ReadByte()
	if err != nil {
		return 0, NewError(UnexpectedEndOfInput, "reading u8")
	}
	return b, nil
}

func (d *BinaryDeserializer) read(n int) ([]byte, error) {
	if d.Buffer.Len() < n {
		return nil, NewError(UnexpectedEndOfInput, "need %d bytes, %d remaining", n, d.Buffer.Len())
	}
	buf := make([]byte, n)
	_, _ = io.ReadFull(d.Buffer, buf)
	return buf, nil
}

func (d *BinaryDeserializer) DeserializeU16() (uint16, error) {
	buf, err := d.read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (d *BinaryDeserializer) DeserializeU32() (uint32, error) {
	buf, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (d *BinaryDeserializer) DeserializeU64() (uint64, error) {
	buf, err := d.read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func (d *BinaryDeserializer) DeserializeU128() (Uint128, error) {
	low, err := d.DeserializeU64()
	if err != nil {
		return Uint128{}, err
	}
	high, err := d.DeserializeU64()
	if err != nil {
		return Uint128{}, err
	}
	return Uint128{High: high, Low: low}, nil
}

func (d *BinaryDeserializer) DeserializeI8() (int8, error) {
	v, err := d.DeserializeU8()
	return int8(v), err
}

func (d *BinaryDeserializer) DeserializeI16() (int16, error) {
	v, err := d.DeserializeU16()
	return int16(v), err
}

func (d *BinaryDeserializer) DeserializeI32() (int32, error) {
	v, err := d.DeserializeU32()
	return int32(v), err
}

func (d *BinaryDeserializer) DeserializeI64() (int64, error) {
	v, err := d.DeserializeU64()
	return int64(v), err
}

func (d *BinaryDeserializer) DeserializeI128() (Int128, error) {
	low, err := d.DeserializeU64()
	if err != nil {
		return Int128{}, err
	}
	high, err := d.DeserializeI64()
	if err != nil {
		return Int128{}, err
	}
	return Int128{High: high, Low: low}, nil
}

func (d *BinaryDeserializer) DeserializeOptionTag() (bool, error) {
	b, err := d.DeserializeU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, NewError(InvalidTag, "invalid option tag %#02x", b)
	}
}

func (d *BinaryDeserializer) GetBufferOffset() uint64 {
	return uint64(len(d.Input)) - uint64(d.Buffer.Len())
}

// CheckEnd fails with TrailingBytes unless the whole input was consumed.
func (d *BinaryDeserializer) CheckEnd() error {
	if n := d.Buffer.Len(); n > 0 {
		return NewError(TrailingBytes, "%d bytes left after decoding", n)
	}
	return nil
}
