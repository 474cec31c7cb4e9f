package vip8

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProgramDoesNotFitIntoMemory = errors.New("the program does not fit into memory")

// Memory map
// 0x000-0x1FF reserved for the interpreter, font glyphs live at 0x050-0x09F
// 0x200-0xFFF program ROM and work RAM
const (
	MEMORY_SIZE = 4096

	startOfProgram = 0x200
	startOfFont    = 0x050
	glyphHeight    = 5
	lastAddress    = MEMORY_SIZE - 1
)

type Memory [MEMORY_SIZE]byte

// NewMemory creates a memory of 4096 bytes with the font glyphs loaded
func NewMemory() *Memory {
	m := Memory([MEMORY_SIZE]byte{})
	loadCharactersInto(&m)

	return &m
}

func (mem Memory) Clone() *Memory {
	m := new(Memory)

	copy(m[:], mem[:])

	return m
}

func (mem Memory) String() string {
	sb := strings.Builder{}

	sb.WriteString("[ ")
	for _, b := range mem[:startOfProgram] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]\n")
	sb.WriteString("[ ")
	for _, b := range mem[startOfProgram:] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]")

	return sb.String()
}

func (mem Memory) IsEqual(other Memory) bool {
	return mem == other
}

// Read returns the byte at addr.
func (mem *Memory) Read(addr uint16) (byte, error) {
	if addr > lastAddress {
		return 0, &AddressError{Address: addr, Op: "read"}
	}

	return mem[addr], nil
}

// Write stores b at addr. The interpreter area below the start of the
// program is read-only for instructions.
func (mem *Memory) Write(addr uint16, b byte) error {
	if addr < startOfProgram || addr > lastAddress {
		return &AddressError{Address: addr, Op: "write"}
	}

	mem[addr] = b

	return nil
}

// LoadProgram clears the memory, restores the font and copies the program
// at the start-of-program address
func (mem *Memory) LoadProgram(program []byte) error {
	if len(program) > MEMORY_SIZE-startOfProgram {
		return ErrProgramDoesNotFitIntoMemory
	}

	*mem = Memory{}
	loadCharactersInto(mem)
	copy(mem[startOfProgram:], program)

	return nil
}

// FontAddress returns the address of the glyph for the low nibble of digit
func FontAddress(digit byte) uint16 {
	return startOfFont + uint16(digit&0xF)*glyphHeight
}

var font = [16 * glyphHeight]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}

// Glyph returns the 5 sprite rows of the built-in glyph for the low nibble of digit
func Glyph(digit byte) []byte {
	start := uint16(digit&0xF) * glyphHeight
	return font[start : start+glyphHeight]
}

func loadCharactersInto(mem *Memory) {
	copy(mem[startOfFont:], font[:])
}
