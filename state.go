package vip8

import "encoding/binary"

// State is a copy of the registers and timers taken between cycles
type State struct {
	// OpCode at Pc, the next instruction to run
	OpCode uint16
	RegisterFile
	Timers
	Cycles        uint
	WaitingForKey bool
}

// State returns a snapshot of the CPU registers
func (cpu *Cpu) State() State {
	s := State{
		RegisterFile:  cpu.RegisterFile,
		Timers:        cpu.Timers,
		Cycles:        cpu.cycles,
		WaitingForKey: cpu.waitingForKey,
	}
	if cpu.Pc < lastAddress {
		s.OpCode = uint16(cpu.Memory[cpu.Pc])<<8 | uint16(cpu.Memory[cpu.Pc+1])
	}

	return s
}

// MarshalBinary encodes the state as
//
//	opcode(2) pc(2) V0..VF(16) I(2) SP(1) stack(32) DT(1) ST(1) width(1) height(1) waiting(1)
//
// with every 16-bit value big endian.
func (s State) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 60)

	buf = binary.BigEndian.AppendUint16(buf, s.OpCode)
	buf = binary.BigEndian.AppendUint16(buf, s.Pc)
	buf = append(buf, s.V[:]...)
	buf = binary.BigEndian.AppendUint16(buf, s.I)
	buf = append(buf, s.Sp)
	for _, b := range s.Stack {
		buf = binary.BigEndian.AppendUint16(buf, b)
	}
	buf = append(buf, s.Dt, s.St)
	buf = append(buf, ScreenWidth, ScreenHeight)
	buf = append(buf, bool2byte(s.WaitingForKey))

	return buf, nil
}
