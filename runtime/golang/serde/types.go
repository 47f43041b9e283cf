package serde

import "math/big"

// Uint128 is an unsigned 128-bit integer. The wire form is Low then High,
// both little-endian.
type Uint128 struct {
	High uint64
	Low  uint64
}

// Int128 is a two's-complement signed 128-bit integer.
type Int128 struct {
	High int64
	Low  uint64
}

// BigInt converts the value to a math/big integer.
func (v Uint128) BigInt() *big.Int {
	hi := new(big.Int).SetUint64(v.High)
	hi.Lsh(hi, 64)
	return hi.Or(hi, new(big.Int).SetUint64(v.Low))
}

func (v Int128) BigInt() *big.Int {
	hi := big.NewInt(v.High)
	hi.Lsh(hi, 64)
	return hi.Add(hi, new(big.Int).SetUint64(v.Low))
}

var (
	two64  = new(big.Int).Lsh(big.NewInt(1), 64)
	two128 = new(big.Int).Lsh(big.NewInt(1), 128)
	mask64 = new(big.Int).Sub(two64, big.NewInt(1))
)

// Uint128FromBig converts n, reporting false when n is out of range.
func Uint128FromBig(n *big.Int) (Uint128, bool) {
	if n.Sign() < 0 || n.Cmp(two128) >= 0 {
		return Uint128{}, false
	}
	low := new(big.Int).And(n, mask64)
	high := new(big.Int).Rsh(n, 64)
	return Uint128{High: high.Uint64(), Low: low.Uint64()}, true
}

// Int128FromBig converts n, reporting false when n is out of range.
func Int128FromBig(n *big.Int) (Int128, bool) {
	limit := new(big.Int).Rsh(two128, 1)
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return Int128{}, false
	}
	u := new(big.Int).Set(n)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	low := new(big.Int).And(u, mask64)
	high := new(big.Int).Rsh(u, 64)
	return Int128{High: int64(high.Uint64()), Low: low.Uint64()}, true
}
