package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/serdegen/internal/format"
)

func TestSampleRegistries_Validate(t *testing.T) {
	for name, build := range map[string]func() *format.Registry{
		"point":        PointRegistry,
		"shape":        ShapeRegistry,
		"tree":         TreeRegistry,
		"expr":         ExprRegistry,
		"kitchen sink": KitchenSinkRegistry,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, format.Validate(build()))
		})
	}
}
