package vip8

import (
	"fmt"
	"sort"
	"strings"
)

// ShiftSource selects the operand of 8XY6 and 8XYE
type ShiftSource byte

const (
	// ShiftVy copies Vy into Vx before shifting (COSMAC VIP)
	ShiftVy ShiftSource = iota
	// ShiftVx shifts Vx in place and ignores Vy (CHIP-48)
	ShiftVx
)

func (s ShiftSource) String() string {
	switch s {
	case ShiftVy:
		return "vy"
	case ShiftVx:
		return "vx"
	}
	return fmt.Sprintf("ShiftSource(%d)", byte(s))
}

// LoadStore selects what FX55 and FX65 do to I
type LoadStore byte

const (
	// IndexIncrement leaves I pointing past the last register moved (COSMAC VIP)
	IndexIncrement LoadStore = iota
	// IndexUnchanged leaves I untouched (CHIP-48)
	IndexUnchanged
)

func (l LoadStore) String() string {
	switch l {
	case IndexIncrement:
		return "increment"
	case IndexUnchanged:
		return "unchanged"
	}
	return fmt.Sprintf("LoadStore(%d)", byte(l))
}

// SpriteEdge selects what happens to sprite pixels past the edge of the screen
type SpriteEdge byte

const (
	// SpriteWrap draws them on the opposite side of the screen
	SpriteWrap SpriteEdge = iota
	// SpriteClip drops them
	SpriteClip
)

func (e SpriteEdge) String() string {
	switch e {
	case SpriteWrap:
		return "wrap"
	case SpriteClip:
		return "clip"
	}
	return fmt.Sprintf("SpriteEdge(%d)", byte(e))
}

// AddressPolicy selects what happens to memory accesses past 0xFFF
type AddressPolicy byte

const (
	// AddressFault fails the instruction with ErrAddressOutOfRange
	AddressFault AddressPolicy = iota
	// AddressWrap masks the address to 12 bits
	AddressWrap
)

func (a AddressPolicy) String() string {
	switch a {
	case AddressFault:
		return "fault"
	case AddressWrap:
		return "wrap"
	}
	return fmt.Sprintf("AddressPolicy(%d)", byte(a))
}

// JumpOffset selects the register added by BNNN
type JumpOffset byte

const (
	// JumpV0 jumps to NNN + V0
	JumpV0 JumpOffset = iota
	// JumpVx jumps to XNN + Vx (CHIP-48)
	JumpVx
)

func (j JumpOffset) String() string {
	switch j {
	case JumpV0:
		return "v0"
	case JumpVx:
		return "vx"
	}
	return fmt.Sprintf("JumpOffset(%d)", byte(j))
}

// KeyWait selects when FX0A resolves
type KeyWait byte

const (
	// KeyWaitPress resolves as soon as any key is seen pressed
	KeyWaitPress KeyWait = iota
	// KeyWaitRelease resolves once the pressed key is released (COSMAC VIP)
	KeyWaitRelease
)

func (k KeyWait) String() string {
	switch k {
	case KeyWaitPress:
		return "press"
	case KeyWaitRelease:
		return "release"
	}
	return fmt.Sprintf("KeyWait(%d)", byte(k))
}

// Quirks collects the instruction behaviours that historical interpreters
// disagree on. They are resolved once, when the CPU is built.
type Quirks struct {
	Shift     ShiftSource
	LoadStore LoadStore
	Sprite    SpriteEdge
	Address   AddressPolicy
	Jump      JumpOffset
	KeyWait   KeyWait
	// LogicResetsVF clears VF after 8XY1, 8XY2 and 8XY3
	LogicResetsVF bool
}

func (q Quirks) String() string {
	return fmt.Sprintf(
		"shift=%s loadstore=%s sprite=%s address=%s jump=%s keywait=%s vfreset=%t",
		q.Shift, q.LoadStore, q.Sprite, q.Address, q.Jump, q.KeyWait, q.LogicResetsVF,
	)
}

var (
	// DefaultQuirks shifts Vy, increments I, wraps sprites and faults on bad addresses
	DefaultQuirks = Quirks{
		Shift:     ShiftVy,
		LoadStore: IndexIncrement,
		Sprite:    SpriteWrap,
		Address:   AddressFault,
		Jump:      JumpV0,
		KeyWait:   KeyWaitPress,
	}

	// CosmacQuirks follows the original COSMAC VIP interpreter
	CosmacQuirks = Quirks{
		Shift:         ShiftVy,
		LoadStore:     IndexIncrement,
		Sprite:        SpriteClip,
		Address:       AddressWrap,
		Jump:          JumpV0,
		KeyWait:       KeyWaitRelease,
		LogicResetsVF: true,
	}

	// Chip48Quirks follows the HP-48 interpreters most modern ROMs target
	Chip48Quirks = Quirks{
		Shift:     ShiftVx,
		LoadStore: IndexUnchanged,
		Sprite:    SpriteClip,
		Address:   AddressFault,
		Jump:      JumpVx,
		KeyWait:   KeyWaitPress,
	}
)

var quirkPresets = map[string]Quirks{
	"default": DefaultQuirks,
	"cosmac":  CosmacQuirks,
	"chip48":  Chip48Quirks,
}

// QuirkPresets returns the names accepted by QuirksByName
func QuirkPresets() []string {
	names := make([]string, 0, len(quirkPresets))
	for name := range quirkPresets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// QuirksByName returns the preset called name
func QuirksByName(name string) (Quirks, error) {
	q, ok := quirkPresets[strings.ToLower(name)]
	if !ok {
		return Quirks{}, fmt.Errorf("unknown quirks preset %q, expected one of %s", name, strings.Join(QuirkPresets(), ", "))
	}

	return q, nil
}
