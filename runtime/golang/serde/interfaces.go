package serde

// Serializer writes values of the registry's format kinds into a buffer.
// Length and variant prefixes are encoding-specific.
type Serializer interface {
	SerializeStr(value string) error

	SerializeBytes(value []byte) error

	SerializeBool(value bool) error

	SerializeUnit(value struct{}) error

	SerializeF32(value float32) error

	SerializeF64(value float64) error

	SerializeU8(value uint8) error

	SerializeU16(value uint16) error

	SerializeU32(value uint32) error

	SerializeU64(value uint64) error

	SerializeU128(value Uint128) error

	SerializeI8(value int8) error

	SerializeI16(value int16) error

	SerializeI32(value int32) error

	SerializeI64(value int64) error

	SerializeI128(value Int128) error

	SerializeLen(value uint64) error

	SerializeVariantIndex(value uint32) error

	SerializeOptionTag(value bool) error

	// GetBufferOffset returns the number of bytes written so far.
	GetBufferOffset() uint64

	// SortMapEntries reorders the map entries starting at the given
	// offsets. The last entry ends at the current buffer offset.
	SortMapEntries(offsets []uint64)

	GetBytes() []byte

	IncreaseContainerDepth() error

	DecreaseContainerDepth()
}

// Deserializer reads values back from an input slice. Every method
// fails with an *Error rather than returning a partial value.
type Deserializer interface {
	DeserializeStr() (string, error)

	DeserializeBytes() ([]byte, error)

	DeserializeBool() (bool, error)

	DeserializeUnit() (struct{}, error)

	DeserializeF32() (float32, error)

	DeserializeF64() (float64, error)

	DeserializeU8() (uint8, error)

	DeserializeU16() (uint16, error)

	DeserializeU32() (uint32, error)

	DeserializeU64() (uint64, error)

	DeserializeU128() (Uint128, error)

	DeserializeI8() (int8, error)

	DeserializeI16() (int16, error)

	DeserializeI32() (int32, error)

	DeserializeI64() (int64, error)

	DeserializeI128() (Int128, error)

	DeserializeLen() (uint64, error)

	DeserializeVariantIndex() (uint32, error)

	DeserializeOptionTag() (bool, error)

	// GetBufferOffset returns the number of bytes consumed so far.
	GetBufferOffset() uint64

	// CheckThatKeySlicesAreIncreasing compares two serialized map keys
	// taken from the input.
	CheckThatKeySlicesAreIncreasing(key1, key2 Slice) error

	IncreaseContainerDepth() error

	DecreaseContainerDepth()
}

// Slice is a half-open byte range of the input.
type Slice struct {
	Start uint64
	End   uint64
}
