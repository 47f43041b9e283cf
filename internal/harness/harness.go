package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/loader"
	"github.com/roach88/serdegen/internal/testutil"
	"github.com/roach88/serdegen/internal/value"
	"github.com/roach88/serdegen/runtime/golang/serde"
)

// Harness runs suites. The zero value is not usable; call New.
type Harness struct {
	clock *testutil.Clock
	log   *zap.Logger
}

// New returns a harness that logs failed cases to log. A nil logger
// discards output.
func New(log *zap.Logger) *Harness {
	if log == nil {
		log = zap.NewNop()
	}
	return &Harness{clock: testutil.NewClock(), log: log}
}

// Run executes suite with a fresh harness.
func Run(suite *Suite) (*Result, error) {
	return New(nil).Run(suite)
}

// Run loads the suite's registry and checks every vector. The returned
// error covers problems with the suite itself (unreadable or invalid
// registry); vector failures are reported in the result. Sequence numbers
// restart at 1 for every suite.
func (h *Harness) Run(suite *Suite) (*Result, error) {
	reg, err := loader.Load(suite.Registry)
	if err != nil {
		return nil, errors.Wrapf(err, "suite %s", suite.Name)
	}
	if err := format.Validate(reg); err != nil {
		return nil, errors.Wrapf(err, "suite %s", suite.Name)
	}

	h.clock.Reset()
	result := NewResult(suite.Name)
	codecs := make(map[encoding.Encoding]*value.Codec, len(encoding.All))
	for _, enc := range encoding.All {
		codecs[enc] = value.NewCodec(reg, enc)
	}

	for i := range suite.Vectors {
		v := &suite.Vectors[i]
		for _, enc := range encoding.All {
			h.runEncoding(result, reg, codecs[enc], v)
		}
		for _, r := range v.Reject {
			h.runReject(result, codecs, v, r)
		}
	}

	h.log.Info("suite finished",
		zap.String("suite", suite.Name),
		zap.Int("cases", len(result.Cases)),
		zap.Int("failed", len(result.Failures())),
	)
	return result, nil
}

func (h *Harness) record(result *Result, v *Vector, enc encoding.Encoding, check string, err error) {
	c := CaseResult{
		Seq:      h.clock.Next(),
		Vector:   v.Name,
		Encoding: enc.String(),
		Check:    check,
		Pass:     err == nil,
	}
	if err != nil {
		c.Error = err.Error()
		h.log.Debug("case failed",
			zap.String("vector", v.Name),
			zap.String("encoding", c.Encoding),
			zap.String("check", check),
			zap.Error(err),
		)
	}
	result.add(c)
}

func (h *Harness) runEncoding(result *Result, reg *format.Registry, codec *value.Codec, v *Vector) {
	enc := codec.Encoding()
	want, ok, err := v.Expected(enc)
	if !ok {
		return
	}
	if err != nil {
		h.record(result, v, enc, CheckEncode, err)
		return
	}

	expected, err := nodeValue(reg, v.Type, &v.Value)
	if err != nil {
		h.record(result, v, enc, CheckEncode, errors.Wrap(err, "value"))
		return
	}
	decodedWant := expected
	if v.Decoded.Kind != 0 {
		if decodedWant, err = nodeValue(reg, v.Type, &v.Decoded); err != nil {
			h.record(result, v, enc, CheckDecode, errors.Wrap(err, "decoded"))
			return
		}
	}

	got, err := codec.Encode(v.Type, expected)
	if err == nil && !bytes.Equal(got, want) {
		err = errors.Newf("got %s, want %s", hex.EncodeToString(got), hex.EncodeToString(want))
	}
	h.record(result, v, enc, CheckEncode, err)

	decoded, err := codec.Decode(v.Type, want)
	if err == nil && !value.Equal(decoded, decodedWant) {
		err = errors.New("decoded value differs from expected")
	}
	h.record(result, v, enc, CheckDecode, err)
	if err != nil {
		return
	}

	h.record(result, v, enc, CheckJSON, jsonRoundTrip(reg, v.Type, decoded))
}

func (h *Harness) runReject(result *Result, codecs map[encoding.Encoding]*value.Codec, v *Vector, r Rejection) {
	// Validated by LoadSuite.
	enc, _ := encoding.Parse(r.Encoding)
	kind, _ := serde.ParseErrorKind(r.Error)
	input, _ := decodeHex(r.Hex)

	_, err := codecs[enc].Decode(v.Type, input)
	var failure error
	switch {
	case err == nil:
		failure = errors.Newf("decoded without error, want %s", kind)
	case !errors.Is(err, &serde.Error{Kind: kind}):
		failure = errors.Newf("got %v, want %s", err, kind)
	}
	h.record(result, v, enc, CheckReject, failure)
}

func nodeValue(reg *format.Registry, typeName string, n *yaml.Node) (value.Value, error) {
	var x any
	if err := n.Decode(&x); err != nil {
		return nil, err
	}
	return value.FromGeneric(reg, typeName, normalize(x))
}

func jsonRoundTrip(reg *format.Registry, typeName string, v value.Value) error {
	data, err := value.ToJSON(reg, typeName, v)
	if err != nil {
		return err
	}
	back, err := value.FromJSON(reg, typeName, data)
	if err != nil {
		return errors.Wrapf(err, "reparse %s", data)
	}
	if !value.Equal(v, back) {
		return errors.Newf("JSON round trip changed the value: %s", data)
	}
	return nil
}

// normalize converts yaml.v3's map[any]any (non-string keys) into
// map[string]any so that FromGeneric sees the JSON shapes it expects.
func normalize(x any) any {
	switch t := x.(type) {
	case map[string]any:
		for k, v := range t {
			t[k] = normalize(v)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[fmt.Sprint(k)] = normalize(v)
		}
		return out
	case []any:
		for i, v := range t {
			t[i] = normalize(v)
		}
		return t
	}
	return x
}
