package vip8_test

import (
	"errors"
	"testing"

	"github.com/guslan/vip8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryLoadsTheFont(t *testing.T) {
	mem := vip8.NewMemory()

	for d := byte(0); d < 16; d++ {
		addr := vip8.FontAddress(d)
		assert.Equal(t, uint16(0x050+5*uint16(d)), addr)
		assert.Equal(t, vip8.Glyph(d), mem[addr:addr+5], "glyph %X", d)
	}
	assert.Equal(t, []byte{0xF0, 0x90, 0x90, 0x90, 0xF0}, vip8.Glyph(0))
	assert.Equal(t, vip8.FontAddress(0x1), vip8.FontAddress(0xF1), "only the low nibble selects the glyph")
}

func TestMemoryWriteProtectsTheInterpreterArea(t *testing.T) {
	mem := vip8.NewMemory()

	require.NoError(t, mem.Write(0x200, 0xAB))
	require.NoError(t, mem.Write(0xFFF, 0xCD))
	assert.Equal(t, byte(0xAB), mem[0x200])
	assert.Equal(t, byte(0xCD), mem[0xFFF])

	for _, addr := range []uint16{0x000, 0x050, 0x1FF, 0x1000} {
		err := mem.Write(addr, 1)

		var addrErr *vip8.AddressError
		require.True(t, errors.As(err, &addrErr), "write at %03X", addr)
		assert.Equal(t, addr, addrErr.Address)
		assert.ErrorIs(t, err, vip8.ErrAddressOutOfRange)
	}
}

func TestMemoryRead(t *testing.T) {
	mem := vip8.NewMemory()

	b, err := mem.Read(0x050)
	require.NoError(t, err)
	assert.Equal(t, byte(0xF0), b)

	_, err = mem.Read(0x1000)
	assert.ErrorIs(t, err, vip8.ErrAddressOutOfRange)
}

func TestMemoryLoadProgram(t *testing.T) {
	mem := vip8.NewMemory()
	require.NoError(t, mem.Write(0x300, 0xEE))

	require.NoError(t, mem.LoadProgram([]byte{0x12, 0x34}))
	assert.Equal(t, byte(0x12), mem[0x200])
	assert.Equal(t, byte(0x34), mem[0x201])
	assert.Equal(t, byte(0x00), mem[0x300], "loading clears the previous program")
	assert.Equal(t, vip8.Glyph(0xA), mem[vip8.FontAddress(0xA):vip8.FontAddress(0xA)+5])

	require.NoError(t, mem.LoadProgram(make([]byte, vip8.MEMORY_SIZE-0x200)))
	assert.ErrorIs(t, mem.LoadProgram(make([]byte, vip8.MEMORY_SIZE-0x200+1)), vip8.ErrProgramDoesNotFitIntoMemory)
}

func TestMemoryClone(t *testing.T) {
	mem := vip8.NewMemory()
	clone := mem.Clone()

	require.NoError(t, clone.Write(0x200, 1))
	assert.False(t, mem.IsEqual(*clone))
	assert.Equal(t, byte(0), mem[0x200])
}
