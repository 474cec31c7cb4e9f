package vip8

import (
	"errors"
	"fmt"
)

var ErrCpuIsNotBooted = errors.New("the CPU has not been booted properly")

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")
var ErrAddressOutOfRange = errors.New("address out of range")
var ErrRegisterOutOfRange = errors.New("register index out of range")
var ErrOperandOutOfRange = errors.New("instruction operand out of range")
var ErrMachineRoutineUnsupported = errors.New("machine code routines are not supported")

// ErrOpCodeUnknown is returned when an opcode does not match any encoding.
// Pc is the address the opcode was fetched from, zero when decoding outside
// of a running CPU.
type ErrOpCodeUnknown struct {
	OpCode uint16
	Pc     uint16
}

func (err ErrOpCodeUnknown) Error() string {
	return fmt.Sprintf("unknown opcode=%04X at PC=%03X", err.OpCode, err.Pc)
}

// AddressError describes a memory access outside of the valid range.
type AddressError struct {
	Address uint16
	Op      string
}

func (err *AddressError) Error() string {
	return fmt.Sprintf("%s at %04X: %s", err.Op, err.Address, ErrAddressOutOfRange)
}

func (err *AddressError) Unwrap() error {
	return ErrAddressOutOfRange
}
