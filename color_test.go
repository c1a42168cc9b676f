package ledpwm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleBits(t *testing.T) {
	assert.Equal(t, 24, Color{}.Bits())
	assert.Equal(t, 32, ColorW{}.Bits())
}

func TestCompositionString(t *testing.T) {
	assert.Equal(t, "rgb", RGB.String())
	assert.Equal(t, "grb", GRB.String())
}
