package vip8

import "fmt"

// Instruction is a decoded opcode. The set of implementations is closed:
// only the types in this file satisfy it.
type Instruction interface {
	// Opcode re-encodes the instruction
	Opcode() uint16
	String() string

	instruction()
}

type (
	// Sys 0NNN :: Jump to a machine code routine at nnn.
	Sys struct{ Addr uint16 }
	// Cls 00E0 :: Clear the display.
	Cls struct{}
	// Ret 00EE :: Return from a subroutine.
	Ret struct{}
	// Jp 1NNN :: Jump to location nnn.
	Jp struct{ Addr uint16 }
	// Call 2NNN :: Call subroutine at nnn.
	Call struct{ Addr uint16 }
	// SeByte 3XKK :: Skip next instruction if Vx = kk.
	SeByte struct{ X, KK byte }
	// SneByte 4XKK :: Skip next instruction if Vx != kk.
	SneByte struct{ X, KK byte }
	// SeReg 5XY0 :: Skip next instruction if Vx = Vy.
	SeReg struct{ X, Y byte }
	// LdByte 6XKK :: Set Vx = kk.
	LdByte struct{ X, KK byte }
	// AddByte 7XKK :: Set Vx = Vx + kk.
	AddByte struct{ X, KK byte }
	// LdReg 8XY0 :: Set Vx = Vy.
	LdReg struct{ X, Y byte }
	// Or 8XY1 :: Set Vx = Vx OR Vy.
	Or struct{ X, Y byte }
	// And 8XY2 :: Set Vx = Vx AND Vy.
	And struct{ X, Y byte }
	// Xor 8XY3 :: Set Vx = Vx XOR Vy.
	Xor struct{ X, Y byte }
	// AddReg 8XY4 :: Set Vx = Vx + Vy, set VF = carry.
	AddReg struct{ X, Y byte }
	// Sub 8XY5 :: Set Vx = Vx - Vy, set VF = NOT borrow.
	Sub struct{ X, Y byte }
	// Shr 8XY6 :: Set Vx = Vx SHR 1.
	Shr struct{ X, Y byte }
	// Subn 8XY7 :: Set Vx = Vy - Vx, set VF = NOT borrow.
	Subn struct{ X, Y byte }
	// Shl 8XYE :: Set Vx = Vx SHL 1.
	Shl struct{ X, Y byte }
	// SneReg 9XY0 :: Skip next instruction if Vx != Vy.
	SneReg struct{ X, Y byte }
	// LdI ANNN :: Set I = nnn.
	LdI struct{ Addr uint16 }
	// JpV0 BNNN :: Jump to location nnn + V0.
	JpV0 struct{ Addr uint16 }
	// Rnd CXKK :: Set Vx = random byte AND kk.
	Rnd struct{ X, KK byte }
	// Drw DXYN :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
	Drw struct{ X, Y, N byte }
	// Skp EX9E :: Skip next instruction if key with the value of Vx is pressed.
	Skp struct{ X byte }
	// Sknp EXA1 :: Skip next instruction if key with the value of Vx is not pressed.
	Sknp struct{ X byte }
	// LdVxDt FX07 :: Set Vx = delay timer value.
	LdVxDt struct{ X byte }
	// LdVxK FX0A :: Wait for a key press, store the value of the key in Vx.
	LdVxK struct{ X byte }
	// LdDtVx FX15 :: Set delay timer = Vx.
	LdDtVx struct{ X byte }
	// LdStVx FX18 :: Set sound timer = Vx.
	LdStVx struct{ X byte }
	// AddIVx FX1E :: Set I = I + Vx.
	AddIVx struct{ X byte }
	// LdFVx FX29 :: Set I = location of sprite for digit Vx.
	LdFVx struct{ X byte }
	// LdBVx FX33 :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
	LdBVx struct{ X byte }
	// LdIVx FX55 :: Store registers V0 through Vx in memory starting at location I.
	LdIVx struct{ X byte }
	// LdVxI FX65 :: Read registers V0 through Vx from memory starting at location I.
	LdVxI struct{ X byte }
)

// Decode maps an opcode to its instruction.
// It fails with ErrOpCodeUnknown when no encoding matches.
func Decode(opCode uint16) (Instruction, error) {
	x := byte((opCode & 0x0F00) >> 8)
	y := byte((opCode & 0x00F0) >> 4)
	n := byte(opCode & 0x000F)
	kk := byte(opCode & 0x00FF)
	nnn := opCode & 0x0FFF

	switch opCode & 0xF000 {
	case 0x0000:
		switch opCode {
		case 0x00E0:
			return Cls{}, nil
		case 0x00EE:
			return Ret{}, nil
		}
		return Sys{Addr: nnn}, nil

	case 0x1000:
		return Jp{Addr: nnn}, nil

	case 0x2000:
		return Call{Addr: nnn}, nil

	case 0x3000:
		return SeByte{X: x, KK: kk}, nil

	case 0x4000:
		return SneByte{X: x, KK: kk}, nil

	case 0x5000:
		if n == 0 {
			return SeReg{X: x, Y: y}, nil
		}

	case 0x6000:
		return LdByte{X: x, KK: kk}, nil

	case 0x7000:
		return AddByte{X: x, KK: kk}, nil

	case 0x8000:
		switch n {
		case 0x0:
			return LdReg{X: x, Y: y}, nil
		case 0x1:
			return Or{X: x, Y: y}, nil
		case 0x2:
			return And{X: x, Y: y}, nil
		case 0x3:
			return Xor{X: x, Y: y}, nil
		case 0x4:
			return AddReg{X: x, Y: y}, nil
		case 0x5:
			return Sub{X: x, Y: y}, nil
		case 0x6:
			return Shr{X: x, Y: y}, nil
		case 0x7:
			return Subn{X: x, Y: y}, nil
		case 0xE:
			return Shl{X: x, Y: y}, nil
		}

	case 0x9000:
		if n == 0 {
			return SneReg{X: x, Y: y}, nil
		}

	case 0xA000:
		return LdI{Addr: nnn}, nil

	case 0xB000:
		return JpV0{Addr: nnn}, nil

	case 0xC000:
		return Rnd{X: x, KK: kk}, nil

	case 0xD000:
		return Drw{X: x, Y: y, N: n}, nil

	case 0xE000:
		switch kk {
		case 0x9E:
			return Skp{X: x}, nil
		case 0xA1:
			return Sknp{X: x}, nil
		}

	case 0xF000:
		switch kk {
		case 0x07:
			return LdVxDt{X: x}, nil
		case 0x0A:
			return LdVxK{X: x}, nil
		case 0x15:
			return LdDtVx{X: x}, nil
		case 0x18:
			return LdStVx{X: x}, nil
		case 0x1E:
			return AddIVx{X: x}, nil
		case 0x29:
			return LdFVx{X: x}, nil
		case 0x33:
			return LdBVx{X: x}, nil
		case 0x55:
			return LdIVx{X: x}, nil
		case 0x65:
			return LdVxI{X: x}, nil
		}
	}

	return nil, ErrOpCodeUnknown{OpCode: opCode}
}

func encodeAddr(op uint16, addr uint16) uint16 {
	return op | addr&0x0FFF
}

func encodeXKK(op uint16, x, kk byte) uint16 {
	return op | uint16(x&0xF)<<8 | uint16(kk)
}

func encodeXYN(op uint16, x, y, n byte) uint16 {
	return op | uint16(x&0xF)<<8 | uint16(y&0xF)<<4 | uint16(n&0xF)
}

func (i Sys) Opcode() uint16     { return encodeAddr(0x0000, i.Addr) }
func (i Cls) Opcode() uint16     { return 0x00E0 }
func (i Ret) Opcode() uint16     { return 0x00EE }
func (i Jp) Opcode() uint16      { return encodeAddr(0x1000, i.Addr) }
func (i Call) Opcode() uint16    { return encodeAddr(0x2000, i.Addr) }
func (i SeByte) Opcode() uint16  { return encodeXKK(0x3000, i.X, i.KK) }
func (i SneByte) Opcode() uint16 { return encodeXKK(0x4000, i.X, i.KK) }
func (i SeReg) Opcode() uint16   { return encodeXYN(0x5000, i.X, i.Y, 0x0) }
func (i LdByte) Opcode() uint16  { return encodeXKK(0x6000, i.X, i.KK) }
func (i AddByte) Opcode() uint16 { return encodeXKK(0x7000, i.X, i.KK) }
func (i LdReg) Opcode() uint16   { return encodeXYN(0x8000, i.X, i.Y, 0x0) }
func (i Or) Opcode() uint16      { return encodeXYN(0x8000, i.X, i.Y, 0x1) }
func (i And) Opcode() uint16     { return encodeXYN(0x8000, i.X, i.Y, 0x2) }
func (i Xor) Opcode() uint16     { return encodeXYN(0x8000, i.X, i.Y, 0x3) }
func (i AddReg) Opcode() uint16  { return encodeXYN(0x8000, i.X, i.Y, 0x4) }
func (i Sub) Opcode() uint16     { return encodeXYN(0x8000, i.X, i.Y, 0x5) }
func (i Shr) Opcode() uint16     { return encodeXYN(0x8000, i.X, i.Y, 0x6) }
func (i Subn) Opcode() uint16    { return encodeXYN(0x8000, i.X, i.Y, 0x7) }
func (i Shl) Opcode() uint16     { return encodeXYN(0x8000, i.X, i.Y, 0xE) }
func (i SneReg) Opcode() uint16  { return encodeXYN(0x9000, i.X, i.Y, 0x0) }
func (i LdI) Opcode() uint16     { return encodeAddr(0xA000, i.Addr) }
func (i JpV0) Opcode() uint16    { return encodeAddr(0xB000, i.Addr) }
func (i Rnd) Opcode() uint16     { return encodeXKK(0xC000, i.X, i.KK) }
func (i Drw) Opcode() uint16     { return encodeXYN(0xD000, i.X, i.Y, i.N) }
func (i Skp) Opcode() uint16     { return encodeXKK(0xE000, i.X, 0x9E) }
func (i Sknp) Opcode() uint16    { return encodeXKK(0xE000, i.X, 0xA1) }
func (i LdVxDt) Opcode() uint16  { return encodeXKK(0xF000, i.X, 0x07) }
func (i LdVxK) Opcode() uint16   { return encodeXKK(0xF000, i.X, 0x0A) }
func (i LdDtVx) Opcode() uint16  { return encodeXKK(0xF000, i.X, 0x15) }
func (i LdStVx) Opcode() uint16  { return encodeXKK(0xF000, i.X, 0x18) }
func (i AddIVx) Opcode() uint16  { return encodeXKK(0xF000, i.X, 0x1E) }
func (i LdFVx) Opcode() uint16   { return encodeXKK(0xF000, i.X, 0x29) }
func (i LdBVx) Opcode() uint16   { return encodeXKK(0xF000, i.X, 0x33) }
func (i LdIVx) Opcode() uint16   { return encodeXKK(0xF000, i.X, 0x55) }
func (i LdVxI) Opcode() uint16   { return encodeXKK(0xF000, i.X, 0x65) }

func (i Sys) String() string     { return fmt.Sprintf("SYS 0x%03X", i.Addr) }
func (i Cls) String() string     { return "CLS" }
func (i Ret) String() string     { return "RET" }
func (i Jp) String() string      { return fmt.Sprintf("JP 0x%03X", i.Addr) }
func (i Call) String() string    { return fmt.Sprintf("CALL 0x%03X", i.Addr) }
func (i SeByte) String() string  { return fmt.Sprintf("SE V%X, 0x%02X", i.X, i.KK) }
func (i SneByte) String() string { return fmt.Sprintf("SNE V%X, 0x%02X", i.X, i.KK) }
func (i SeReg) String() string   { return fmt.Sprintf("SE V%X, V%X", i.X, i.Y) }
func (i LdByte) String() string  { return fmt.Sprintf("LD V%X, 0x%02X", i.X, i.KK) }
func (i AddByte) String() string { return fmt.Sprintf("ADD V%X, 0x%02X", i.X, i.KK) }
func (i LdReg) String() string   { return fmt.Sprintf("LD V%X, V%X", i.X, i.Y) }
func (i Or) String() string      { return fmt.Sprintf("OR V%X, V%X", i.X, i.Y) }
func (i And) String() string     { return fmt.Sprintf("AND V%X, V%X", i.X, i.Y) }
func (i Xor) String() string     { return fmt.Sprintf("XOR V%X, V%X", i.X, i.Y) }
func (i AddReg) String() string  { return fmt.Sprintf("ADD V%X, V%X", i.X, i.Y) }
func (i Sub) String() string     { return fmt.Sprintf("SUB V%X, V%X", i.X, i.Y) }
func (i Shr) String() string     { return fmt.Sprintf("SHR V%X, V%X", i.X, i.Y) }
func (i Subn) String() string    { return fmt.Sprintf("SUBN V%X, V%X", i.X, i.Y) }
func (i Shl) String() string     { return fmt.Sprintf("SHL V%X, V%X", i.X, i.Y) }
func (i SneReg) String() string  { return fmt.Sprintf("SNE V%X, V%X", i.X, i.Y) }
func (i LdI) String() string     { return fmt.Sprintf("LD I, 0x%03X", i.Addr) }
func (i JpV0) String() string    { return fmt.Sprintf("JP V0, 0x%03X", i.Addr) }
func (i Rnd) String() string     { return fmt.Sprintf("RND V%X, 0x%02X", i.X, i.KK) }
func (i Drw) String() string     { return fmt.Sprintf("DRW V%X, V%X, %d", i.X, i.Y, i.N) }
func (i Skp) String() string     { return fmt.Sprintf("SKP V%X", i.X) }
func (i Sknp) String() string    { return fmt.Sprintf("SKNP V%X", i.X) }
func (i LdVxDt) String() string  { return fmt.Sprintf("LD V%X, DT", i.X) }
func (i LdVxK) String() string   { return fmt.Sprintf("LD V%X, K", i.X) }
func (i LdDtVx) String() string  { return fmt.Sprintf("LD DT, V%X", i.X) }
func (i LdStVx) String() string  { return fmt.Sprintf("LD ST, V%X", i.X) }
func (i AddIVx) String() string  { return fmt.Sprintf("ADD I, V%X", i.X) }
func (i LdFVx) String() string   { return fmt.Sprintf("LD F, V%X", i.X) }
func (i LdBVx) String() string   { return fmt.Sprintf("LD B, V%X", i.X) }
func (i LdIVx) String() string   { return fmt.Sprintf("LD [I], V%X", i.X) }
func (i LdVxI) String() string   { return fmt.Sprintf("LD V%X, [I]", i.X) }

func (Sys) instruction()     {}
func (Cls) instruction()     {}
func (Ret) instruction()     {}
func (Jp) instruction()      {}
func (Call) instruction()    {}
func (SeByte) instruction()  {}
func (SneByte) instruction() {}
func (SeReg) instruction()   {}
func (LdByte) instruction()  {}
func (AddByte) instruction() {}
func (LdReg) instruction()   {}
func (Or) instruction()      {}
func (And) instruction()     {}
func (Xor) instruction()     {}
func (AddReg) instruction()  {}
func (Sub) instruction()     {}
func (Shr) instruction()     {}
func (Subn) instruction()    {}
func (Shl) instruction()     {}
func (SneReg) instruction()  {}
func (LdI) instruction()     {}
func (JpV0) instruction()    {}
func (Rnd) instruction()     {}
func (Drw) instruction()     {}
func (Skp) instruction()     {}
func (Sknp) instruction()    {}
func (LdVxDt) instruction()  {}
func (LdVxK) instruction()   {}
func (LdDtVx) instruction()  {}
func (LdStVx) instruction()  {}
func (AddIVx) instruction()  {}
func (LdFVx) instruction()   {}
func (LdBVx) instruction()   {}
func (LdIVx) instruction()   {}
func (LdVxI) instruction()   {}
