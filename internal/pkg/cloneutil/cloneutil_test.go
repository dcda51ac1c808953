package cloneutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	assert.Nil(t, Ptr[string](nil))

	src := "blue"
	dst := Ptr(&src)
	*dst = "red"
	assert.Equal(t, "blue", src)
}

func TestSlice(t *testing.T) {
	assert.Nil(t, Slice[string](nil))

	src := []string{"a", "b"}
	dst := Slice(src)
	dst[0] = "z"
	assert.Equal(t, "a", src[0])
}
