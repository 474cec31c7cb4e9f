package vip8

const stackDepth = 16

// RegisterFile holds the CPU registers and the call stack
type RegisterFile struct {
	// V 8-bit registers, VF doubles as the flag register
	V [16]byte
	// I 16-bit register, used as a memory address
	I uint16
	// Program counter
	Pc uint16
	// Stack pointer, number of entries in Stack
	Sp byte
	// Stack of return addresses
	Stack [stackDepth]uint16
}

func (r *RegisterFile) reset() {
	*r = RegisterFile{Pc: startOfProgram}
}

// Get returns the value of Vx
func (r *RegisterFile) Get(x byte) (byte, error) {
	if x > 0xF {
		return 0, ErrRegisterOutOfRange
	}

	return r.V[x], nil
}

// Set stores v in Vx
func (r *RegisterFile) Set(x, v byte) error {
	if x > 0xF {
		return ErrRegisterOutOfRange
	}

	r.V[x] = v

	return nil
}

// Push stores a return address on the stack
func (r *RegisterFile) Push(addr uint16) error {
	if r.Sp >= stackDepth {
		return ErrStackOverflow
	}
	r.Stack[r.Sp] = addr
	r.Sp++

	return nil
}

// Pop removes the most recent return address from the stack
func (r *RegisterFile) Pop() (uint16, error) {
	if r.Sp == 0 {
		return 0, ErrStackUnderflow
	}
	r.Sp--

	return r.Stack[r.Sp], nil
}
