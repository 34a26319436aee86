package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectEqual(t *testing.T) {
	a := Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}

	assert.True(t, a.Equal(Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}))
	assert.False(t, a.Equal(Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1040}))
	assert.False(t, a.Equal(Rect{Left: -8, Top: -8, Right: 1928, Bottom: 1088}))
}

func TestHandleString(t *testing.T) {
	assert.Equal(t, "0x000A01F2", Handle(0xA01F2).String())
	assert.Equal(t, "0x00000000", Handle(0).String())
}

func TestVirtualKeyRanges(t *testing.T) {
	assert.Equal(t, VirtualKey('0'), VK0)
	assert.Equal(t, VirtualKey('9'), VK9)
	assert.Equal(t, VirtualKey('A'), VKA)
	assert.Equal(t, VirtualKey('Z'), VKZ)
	assert.Equal(t, 10, int(VKNumpad9-VKNumpad0)+1)
}
