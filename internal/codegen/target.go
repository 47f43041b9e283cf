package codegen

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Target is a language the generator can emit.
type Target string

const (
	Go      Target = "go"
	Rust    Target = "rust"
	Python3 Target = "python3"
)

// Targets lists every supported target in dispatch order.
var Targets = []Target{Go, Rust, Python3}

// ParseTarget accepts a target name, case-insensitively. "golang" and
// "python" are accepted as aliases.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "go", "golang":
		return Go, nil
	case "rust":
		return Rust, nil
	case "python3", "python":
		return Python3, nil
	}
	return "", errors.WithHint(
		errors.Newf("unknown target %q", s),
		"supported targets: go, rust, python3")
}

func (t Target) String() string { return string(t) }
