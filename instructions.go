package vip8

import (
	"fmt"
	"io"
)

// Execute runs a decoded instruction against the machine state.
// Pc must already point to the following instruction.
// Instructions built by hand must have operands that fit their encoding.
func (cpu *Cpu) Execute(ins Instruction) error {
	if ins == nil {
		return fmt.Errorf("nil instruction: %w", ErrOperandOutOfRange)
	}
	if canonical, err := Decode(ins.Opcode()); err != nil || canonical != ins {
		return fmt.Errorf("%s: %w", ins, ErrOperandOutOfRange)
	}

	return cpu.execute(ins)
}

func (cpu *Cpu) execute(ins Instruction) error {
	switch ins := ins.(type) {
	case Sys:
		// This instruction is only used on the old computers on which Chip-8 was originally implemented.
		if cpu.MachineRoutineInterpreter == nil {
			return fmt.Errorf("SYS %03X: %w", ins.Addr, ErrMachineRoutineUnsupported)
		}
		return cpu.MachineRoutineInterpreter(ins.Addr, cpu)

	case Cls:
		cpu.screen.Clear()
		cpu.isScreenDirty = true

	case Ret:
		addr, err := cpu.Pop()
		if err != nil {
			return err
		}
		cpu.Pc = addr

	case Jp:
		cpu.Pc = ins.Addr

	case Call:
		if err := cpu.Push(cpu.Pc); err != nil {
			return err
		}
		cpu.Pc = ins.Addr

	case SeByte:
		if cpu.V[ins.X] == ins.KK {
			cpu.skip()
		}

	case SneByte:
		if cpu.V[ins.X] != ins.KK {
			cpu.skip()
		}

	case SeReg:
		if cpu.V[ins.X] == cpu.V[ins.Y] {
			cpu.skip()
		}

	case LdByte:
		cpu.V[ins.X] = ins.KK

	case AddByte:
		cpu.V[ins.X] += ins.KK

	case LdReg:
		cpu.V[ins.X] = cpu.V[ins.Y]

	case Or:
		cpu.V[ins.X] |= cpu.V[ins.Y]
		cpu.resetFlagAfterLogic()

	case And:
		cpu.V[ins.X] &= cpu.V[ins.Y]
		cpu.resetFlagAfterLogic()

	case Xor:
		cpu.V[ins.X] ^= cpu.V[ins.Y]
		cpu.resetFlagAfterLogic()

	case AddReg:
		r := uint16(cpu.V[ins.X]) + uint16(cpu.V[ins.Y])
		cpu.V[ins.X] = byte(r)
		cpu.V[0xF] = byte(r >> 8)

	case Sub:
		// VF is NOT borrow
		carry := cpu.V[ins.X] >= cpu.V[ins.Y]
		cpu.V[ins.X] = cpu.V[ins.X] - cpu.V[ins.Y]
		cpu.V[0xF] = bool2byte(carry)

	case Shr:
		v := cpu.shiftOperand(ins.X, ins.Y)
		cpu.V[ins.X] = v >> 1
		cpu.V[0xF] = v & 0b00000001

	case Subn:
		carry := cpu.V[ins.Y] >= cpu.V[ins.X]
		cpu.V[ins.X] = cpu.V[ins.Y] - cpu.V[ins.X]
		cpu.V[0xF] = bool2byte(carry)

	case Shl:
		v := cpu.shiftOperand(ins.X, ins.Y)
		cpu.V[ins.X] = v << 1
		cpu.V[0xF] = (v & 0b10000000) >> 7

	case SneReg:
		if cpu.V[ins.X] != cpu.V[ins.Y] {
			cpu.skip()
		}

	case LdI:
		cpu.I = ins.Addr

	case JpV0:
		if cpu.Quirks.Jump == JumpVx {
			x := byte(ins.Addr >> 8)
			cpu.jump(uint32(ins.Addr) + uint32(cpu.V[x]))
		} else {
			cpu.jump(uint32(ins.Addr) + uint32(cpu.V[0]))
		}

	case Rnd:
		buff := [1]byte{}
		if _, err := io.ReadFull(cpu.random, buff[:]); err != nil {
			return fmt.Errorf("reading random byte: %w", err)
		}
		cpu.V[ins.X] = buff[0] & ins.KK

	case Drw:
		sprite, err := cpu.loadBlock(int(ins.N))
		if err != nil {
			return err
		}
		collision := cpu.screen.DrawSprite(cpu.V[ins.X], cpu.V[ins.Y], sprite, cpu.Quirks.Sprite)
		cpu.V[0xF] = bool2byte(collision)
		cpu.isScreenDirty = true

	case Skp:
		if cpu.Keyboard.IsPressed(cpu.V[ins.X] & 0xF) {
			cpu.skip()
		}

	case Sknp:
		if !cpu.Keyboard.IsPressed(cpu.V[ins.X] & 0xF) {
			cpu.skip()
		}

	case LdVxDt:
		cpu.V[ins.X] = cpu.Dt

	case LdVxK:
		// Pc stays on this instruction until Step sees a key
		cpu.waitingForKey = true
		cpu.keyDstRegister = ins.X
		cpu.heldKey = -1
		cpu.jump(uint32(cpu.Pc) - 2)

	case LdDtVx:
		cpu.Dt = cpu.V[ins.X]

	case LdStVx:
		cpu.St = cpu.V[ins.X]

	case AddIVx:
		cpu.moveIndex(uint16(cpu.V[ins.X]))

	case LdFVx:
		cpu.I = FontAddress(cpu.V[ins.X])

	case LdBVx:
		v := cpu.V[ins.X]
		return cpu.storeBlock([]byte{v / 100, (v / 10) % 10, v % 10})

	case LdIVx:
		if err := cpu.storeBlock(cpu.V[:ins.X+1]); err != nil {
			return err
		}
		if cpu.Quirks.LoadStore == IndexIncrement {
			cpu.moveIndex(uint16(ins.X) + 1)
		}

	case LdVxI:
		data, err := cpu.loadBlock(int(ins.X) + 1)
		if err != nil {
			return err
		}
		copy(cpu.V[:], data)
		if cpu.Quirks.LoadStore == IndexIncrement {
			cpu.moveIndex(uint16(ins.X) + 1)
		}

	default:
		return ErrOpCodeUnknown{OpCode: ins.Opcode(), Pc: cpu.Pc - 2}
	}

	return nil
}

func (cpu *Cpu) skip() {
	cpu.jump(uint32(cpu.Pc) + 2)
}

func (cpu *Cpu) shiftOperand(x, y byte) byte {
	if cpu.Quirks.Shift == ShiftVy {
		return cpu.V[y]
	}
	return cpu.V[x]
}

func (cpu *Cpu) resetFlagAfterLogic() {
	if cpu.Quirks.LogicResetsVF {
		cpu.V[0xF] = 0
	}
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
