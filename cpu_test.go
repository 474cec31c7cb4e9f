package vip8_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guslan/vip8"
)

type testMachine struct {
	cpu     *vip8.Cpu
	kb      *vip8.InMemoryKeyboard
	display *vip8.InMemoryDisplay
	buzzer  *vip8.DummyBuzzer
}

func newTestMachine(t *testing.T, program []byte, configs ...vip8.CpuConfigCb) testMachine {
	t.Helper()

	m := testMachine{
		kb:      vip8.NewInMemoryKeyboard(),
		display: vip8.NewInMemoryDisplay(),
		buzzer:  vip8.NewDummyBuzzer(),
	}
	m.cpu = vip8.NewCpu(vip8.NewMemory(), m.display, m.kb, m.buzzer, configs...)

	if err := m.cpu.LoadProgram(program); err != nil {
		t.Fatalf(`LoadProgram() returned an error %v`, err)
	}
	if err := m.cpu.Boot(); err != nil {
		t.Fatalf(`Boot() returned an error %v`, err)
	}

	return m
}

func runNCycles(cpu *vip8.Cpu, n int) error {
	for i := 0; i < n; i++ {
		if err := cpu.Step(); err != nil {
			return err
		}
	}

	return nil
}

func withQuirks(q vip8.Quirks) vip8.CpuConfigCb {
	return func(config *vip8.CpuConfig) {
		config.Quirks = q
	}
}

func assertVxEq(t *testing.T, msg string, cpu *vip8.Cpu, x, kk byte) {
	t.Helper()

	if cpu.V[x] != kk {
		t.Fatalf(`%s: cpu.V[%X] = %02X, expected %02X`, msg, x, cpu.V[x], kk)
	}
}

func assertPcEq(t *testing.T, cpu *vip8.Cpu, pc uint16) {
	t.Helper()

	if cpu.Pc != pc {
		t.Fatalf(`cpu.Pc = %03X, expected %03X`, cpu.Pc, pc)
	}
}

// TestProgramLoading jumps to the last instruction slot, which holds SYS 000
func TestProgramLoading(t *testing.T) {
	m := newTestMachine(t, []byte{
		// move to the last address
		0x1F, 0xFE,
	})

	assertPcEq(t, m.cpu, 0x200)
	if err := runNCycles(m.cpu, 1); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertPcEq(t, m.cpu, 0xFFE)

	err := m.cpu.Step()
	if !errors.Is(err, vip8.ErrMachineRoutineUnsupported) {
		t.Fatalf(`Step() = %v, expected %v`, err, vip8.ErrMachineRoutineUnsupported)
	}
}

func TestConstantSetInstructions(t *testing.T) {
	m := newTestMachine(t, []byte{
		// set v0 to 128
		0x60, 128,
		// set v1 to 16
		0x61, 16,
		// set v2 to 1
		0x62, 1,
		// add to v2 4
		0x72, 4,
		// add to v0 255, no carry flag
		0x70, 0xFF,
		// copy v1 into v3
		0x83, 0x10,
	})

	if err := runNCycles(m.cpu, 6); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	assertVxEq(t, "LD V0", m.cpu, 0, 127)
	assertVxEq(t, "LD V1", m.cpu, 1, 16)
	assertVxEq(t, "ADD V2", m.cpu, 2, 5)
	assertVxEq(t, "LD V3, V1", m.cpu, 3, 16)
	assertVxEq(t, "7XKK leaves VF alone", m.cpu, 0xF, 0)
}

func TestSimpleSkips(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		pc      uint16
	}{
		{"SE taken", []byte{0x60, 0x05, 0x30, 0x05}, 0x206},
		{"SE not taken", []byte{0x60, 0x05, 0x30, 0x06}, 0x204},
		{"SNE taken", []byte{0x60, 0x05, 0x40, 0x06}, 0x206},
		{"SNE not taken", []byte{0x60, 0x05, 0x40, 0x05}, 0x204},
		{"SE reg not taken", []byte{0x60, 0x05, 0x50, 0x10}, 0x204},
		{"SNE reg taken", []byte{0x60, 0x05, 0x90, 0x10}, 0x206},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.program)
			if err := runNCycles(m.cpu, 2); err != nil {
				t.Fatalf(`Step() returned an error %v`, err)
			}
			assertPcEq(t, m.cpu, tt.pc)
		})
	}
}

func TestSkipsWithKeys(t *testing.T) {
	program := []byte{
		0x60, 0x0B,
		// skip if key B is pressed
		0xE0, 0x9E,
	}

	m := newTestMachine(t, program)
	m.kb.Press(0xB)
	if err := runNCycles(m.cpu, 2); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertPcEq(t, m.cpu, 0x206)

	m = newTestMachine(t, program)
	if err := runNCycles(m.cpu, 2); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertPcEq(t, m.cpu, 0x204)
}

// TestDrawGlyphFromRom draws the glyph of A that the program carries at 0x228
func TestDrawGlyphFromRom(t *testing.T) {
	program := make([]byte, 0x28)
	copy(program, []byte{
		0x00, 0xE0,
		0x60, 0x0A,
		0xA2, 0x28,
		0xD0, 0x05,
	})
	program = append(program, vip8.Glyph(0xA)...)

	m := newTestMachine(t, program)
	if err := runNCycles(m.cpu, 4); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	// D005 draws at (V0, V0)
	screen := m.cpu.Screen()
	for row, b := range vip8.Glyph(0xA) {
		for col := 0; col < 8; col++ {
			want := b&(0x80>>col) != 0
			if got := screen.Pixel(10+col, 10+row); got != want {
				t.Fatalf(`pixel (%d, %d) = %t, expected %t`, 10+col, 10+row, got, want)
			}
		}
	}
	if screen.Pixel(0, 0) || screen.Pixel(18, 10) {
		t.Fatalf("pixels outside of the sprite are set:\n%s", screen)
	}
	assertVxEq(t, "no collision", m.cpu, 0xF, 0)
}

func TestDrawTwiceErases(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x60, 0x00,
		0xF0, 0x29,
		0xD0, 0x05,
		0xD0, 0x05,
	})

	if err := runNCycles(m.cpu, 4); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	assertVxEq(t, "collision", m.cpu, 0xF, 1)
	if m.cpu.Screen() != (vip8.Screen{}) {
		t.Fatalf("screen is not blank after drawing the same sprite twice:\n%s", m.cpu.Screen())
	}
}

func TestTimersAreDecoupledFromSteps(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x60, 0x05,
		// DT = V0
		0xF0, 0x15,
		// spin
		0x12, 0x04,
	})

	if err := runNCycles(m.cpu, 1000); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if m.cpu.Dt != 5 {
		t.Fatalf(`cpu.Dt = %d after 1000 steps, expected 5`, m.cpu.Dt)
	}

	m.cpu.TickTimers()
	if m.cpu.Dt != 4 {
		t.Fatalf(`cpu.Dt = %d after one tick, expected 4`, m.cpu.Dt)
	}

	m.cpu.Dt = 0
	m.cpu.TickTimers()
	if m.cpu.Dt != 0 {
		t.Fatalf(`cpu.Dt = %d, expected the timer to stay at 0`, m.cpu.Dt)
	}
}

func TestStackDepth(t *testing.T) {
	// calls itself forever
	m := newTestMachine(t, []byte{0x22, 0x00})

	if err := runNCycles(m.cpu, 16); err != nil {
		t.Fatalf(`16 nested calls returned an error %v`, err)
	}

	err := m.cpu.Step()
	if !errors.Is(err, vip8.ErrStackOverflow) {
		t.Fatalf(`17th call = %v, expected %v`, err, vip8.ErrStackOverflow)
	}
	if m.cpu.LastError() != err {
		t.Fatalf(`LastError() = %v, expected %v`, m.cpu.LastError(), err)
	}
}

func TestReturnOnEmptyStack(t *testing.T) {
	m := newTestMachine(t, []byte{0x00, 0xEE})

	if err := m.cpu.Step(); !errors.Is(err, vip8.ErrStackUnderflow) {
		t.Fatalf(`RET = %v, expected %v`, err, vip8.ErrStackUnderflow)
	}
}

func TestCallAndReturn(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x22, 0x04,
		0x12, 0x02,
		// subroutine
		0x61, 0x07,
		0x00, 0xEE,
	})

	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertPcEq(t, m.cpu, 0x202)
	assertVxEq(t, "subroutine ran", m.cpu, 1, 7)
	if m.cpu.Sp != 0 {
		t.Fatalf(`cpu.Sp = %d, expected 0`, m.cpu.Sp)
	}
}

func TestWaitForKeyPress(t *testing.T) {
	m := newTestMachine(t, []byte{
		0xF3, 0x0A,
		0x12, 0x02,
	})

	if err := runNCycles(m.cpu, 5); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if !m.cpu.IsWaitingForKey() {
		t.Fatalf(`the cpu is not waiting for a key`)
	}
	assertPcEq(t, m.cpu, 0x200)
	if m.cpu.Cycles() != 1 {
		t.Fatalf(`cpu.Cycles() = %d, polling must not count as cycles`, m.cpu.Cycles())
	}

	m.kb.Press(0x9)
	m.kb.Press(0x7)
	if err := m.cpu.Step(); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	if m.cpu.IsWaitingForKey() {
		t.Fatalf(`the cpu is still waiting for a key`)
	}
	assertVxEq(t, "lowest pressed key", m.cpu, 3, 7)
	assertPcEq(t, m.cpu, 0x202)
	if m.cpu.Cycles() != 2 {
		t.Fatalf(`cpu.Cycles() = %d, expected 2`, m.cpu.Cycles())
	}
}

func TestWaitForKeyRelease(t *testing.T) {
	q := vip8.DefaultQuirks
	q.KeyWait = vip8.KeyWaitRelease
	m := newTestMachine(t, []byte{0xF3, 0x0A}, withQuirks(q))

	m.kb.Press(0x5)
	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if !m.cpu.IsWaitingForKey() {
		t.Fatalf(`the cpu resolved the wait before the key was released`)
	}

	m.kb.Release(0x5)
	if err := m.cpu.Step(); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if m.cpu.IsWaitingForKey() {
		t.Fatalf(`the cpu is still waiting for a key`)
	}
	assertVxEq(t, "released key", m.cpu, 3, 5)
	assertPcEq(t, m.cpu, 0x202)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		v0, vf  byte
	}{
		{"ADD with carry", []byte{0x60, 0xFF, 0x61, 0x02, 0x80, 0x14}, 0x01, 1},
		{"ADD without carry", []byte{0x60, 0x10, 0x61, 0x02, 0x80, 0x14}, 0x12, 0},
		{"SUB with borrow", []byte{0x60, 0x05, 0x61, 0x0A, 0x80, 0x15}, 0xFB, 0},
		{"SUB without borrow", []byte{0x60, 0x0A, 0x61, 0x05, 0x80, 0x15}, 0x05, 1},
		{"SUBN without borrow", []byte{0x60, 0x05, 0x61, 0x0A, 0x80, 0x17}, 0x05, 1},
		{"SUBN with borrow", []byte{0x60, 0x0A, 0x61, 0x05, 0x80, 0x17}, 0xFB, 0},
		{"OR", []byte{0x60, 0x0C, 0x61, 0x03, 0x80, 0x11}, 0x0F, 0},
		{"AND", []byte{0x60, 0x0C, 0x61, 0x06, 0x80, 0x12}, 0x04, 0},
		{"XOR", []byte{0x60, 0x0C, 0x61, 0x06, 0x80, 0x13}, 0x0A, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.program)
			if err := runNCycles(m.cpu, 3); err != nil {
				t.Fatalf(`Step() returned an error %v`, err)
			}
			assertVxEq(t, "result", m.cpu, 0, tt.v0)
			assertVxEq(t, "flag", m.cpu, 0xF, tt.vf)
		})
	}
}

func TestFlagWrittenLast(t *testing.T) {
	// VF as the destination keeps the flag, not the sum
	m := newTestMachine(t, []byte{0x6F, 0xFF, 0x61, 0x02, 0x8F, 0x14})
	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertVxEq(t, "VF", m.cpu, 0xF, 1)
}

func TestShiftQuirk(t *testing.T) {
	program := []byte{
		0x60, 0x05,
		0x61, 0x82,
		// V0 = shift right
		0x80, 0x16,
	}

	m := newTestMachine(t, program, withQuirks(vip8.DefaultQuirks))
	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertVxEq(t, "shift Vy", m.cpu, 0, 0x41)
	assertVxEq(t, "shift Vy flag", m.cpu, 0xF, 0)

	m = newTestMachine(t, program, withQuirks(vip8.Chip48Quirks))
	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertVxEq(t, "shift Vx", m.cpu, 0, 0x02)
	assertVxEq(t, "shift Vx flag", m.cpu, 0xF, 1)
}

func TestShiftLeftQuirk(t *testing.T) {
	program := []byte{
		0x60, 0x05,
		0x61, 0x82,
		// V0 = shift left
		0x80, 0x1E,
	}

	m := newTestMachine(t, program, withQuirks(vip8.DefaultQuirks))
	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertVxEq(t, "shift Vy", m.cpu, 0, 0x04)
	assertVxEq(t, "shift Vy flag", m.cpu, 0xF, 1)

	m = newTestMachine(t, program, withQuirks(vip8.Chip48Quirks))
	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertVxEq(t, "shift Vx", m.cpu, 0, 0x0A)
	assertVxEq(t, "shift Vx flag", m.cpu, 0xF, 0)
}

func TestShiftIntoFlag(t *testing.T) {
	tests := []struct {
		name    string
		quirks  vip8.Quirks
		program []byte
		flag    byte
	}{
		{"shift left Vy carry", vip8.DefaultQuirks, []byte{0x61, 0x81, 0x8F, 0x1E}, 1},
		{"shift left Vy no carry", vip8.DefaultQuirks, []byte{0x61, 0x41, 0x8F, 0x1E}, 0},
		{"shift left Vx carry", vip8.Chip48Quirks, []byte{0x6F, 0x81, 0x8F, 0x0E}, 1},
		{"shift right Vx", vip8.Chip48Quirks, []byte{0x6F, 0x02, 0x8F, 0x06}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.program, withQuirks(tt.quirks))
			if err := runNCycles(m.cpu, 2); err != nil {
				t.Fatalf(`Step() returned an error %v`, err)
			}
			// VF as the destination holds the shifted out bit
			assertVxEq(t, "VF", m.cpu, 0xF, tt.flag)
		})
	}
}

func TestAddIndex(t *testing.T) {
	program := []byte{
		0xAF, 0xFF,
		0x60, 0x02,
		0x6F, 0x07,
		0xF0, 0x1E,
		0xF0, 0x65,
	}

	m := newTestMachine(t, program, withQuirks(vip8.CosmacQuirks))
	if err := runNCycles(m.cpu, 4); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if m.cpu.I != 0x001 {
		t.Fatalf(`cpu.I = %03X, expected it to wrap to 001`, m.cpu.I)
	}
	assertVxEq(t, "VF untouched", m.cpu, 0xF, 0x07)

	m = newTestMachine(t, program, withQuirks(vip8.DefaultQuirks))
	if err := runNCycles(m.cpu, 4); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if m.cpu.I != 0x1001 {
		t.Fatalf(`cpu.I = %04X, expected 1001`, m.cpu.I)
	}
	assertVxEq(t, "VF untouched", m.cpu, 0xF, 0x07)

	if err := m.cpu.Step(); !errors.Is(err, vip8.ErrAddressOutOfRange) {
		t.Fatalf(`Step() = %v, expected %v`, err, vip8.ErrAddressOutOfRange)
	}
}

func TestLogicResetsFlagQuirk(t *testing.T) {
	m := newTestMachine(t, []byte{0x6F, 0x01, 0x80, 0x11}, withQuirks(vip8.CosmacQuirks))
	if err := runNCycles(m.cpu, 2); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertVxEq(t, "VF", m.cpu, 0xF, 0)
}

func TestBcd(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x60, 254,
		0xA3, 0x00,
		0xF0, 0x33,
	})

	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	for i, want := range []byte{2, 5, 4} {
		if got := m.cpu.Memory[0x300+i]; got != want {
			t.Fatalf(`memory[%03X] = %d, expected %d`, 0x300+i, got, want)
		}
	}
	if m.cpu.I != 0x300 {
		t.Fatalf(`cpu.I = %03X, expected it unchanged`, m.cpu.I)
	}
}

func TestStoreAndLoadRegisters(t *testing.T) {
	program := []byte{
		0x60, 0x01,
		0x61, 0x02,
		0x62, 0x03,
		0xA3, 0x00,
		// store V0-V2
		0xF2, 0x55,
		0xA3, 0x00,
		0x60, 0x00,
		// load V0-V1
		0xF1, 0x65,
	}

	tests := []struct {
		name   string
		quirks vip8.Quirks
		i      uint16
	}{
		{"index increment", vip8.DefaultQuirks, 0x302},
		{"index unchanged", vip8.Chip48Quirks, 0x300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, program, withQuirks(tt.quirks))
			if err := runNCycles(m.cpu, 8); err != nil {
				t.Fatalf(`Step() returned an error %v`, err)
			}

			if got := m.cpu.Memory[0x300:0x303]; !bytes.Equal(got, []byte{1, 2, 3}) {
				t.Fatalf(`memory[300:303] = %v, expected [1 2 3]`, got)
			}
			assertVxEq(t, "loaded V0", m.cpu, 0, 1)
			assertVxEq(t, "loaded V1", m.cpu, 1, 2)
			if m.cpu.I != tt.i {
				t.Fatalf(`cpu.I = %03X, expected %03X`, m.cpu.I, tt.i)
			}
		})
	}
}

func TestRandomUsesTheConfiguredSource(t *testing.T) {
	m := newTestMachine(t, []byte{0xC0, 0x0F, 0xC1, 0xFF}, func(config *vip8.CpuConfig) {
		config.Random = bytes.NewReader([]byte{0xAB, 0x42})
	})

	if err := runNCycles(m.cpu, 2); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	assertVxEq(t, "masked", m.cpu, 0, 0x0B)
	assertVxEq(t, "unmasked", m.cpu, 1, 0x42)

	if err := m.cpu.Execute(vip8.Rnd{X: 2, KK: 0xFF}); err == nil {
		t.Fatalf(`Execute() with an exhausted source should fail`)
	}
}

func TestWaitForKeyAtLastAddress(t *testing.T) {
	m := newTestMachine(t, []byte{0x1F, 0xFE}, withQuirks(vip8.CosmacQuirks))
	if err := m.cpu.Memory.Write(0xFFE, 0xF3); err != nil {
		t.Fatal(err)
	}
	if err := m.cpu.Memory.Write(0xFFF, 0x0A); err != nil {
		t.Fatal(err)
	}

	if err := runNCycles(m.cpu, 2); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if !m.cpu.IsWaitingForKey() {
		t.Fatalf(`the cpu is not waiting for a key`)
	}
	assertPcEq(t, m.cpu, 0xFFE)
	if got := m.cpu.State().OpCode; got != 0xF30A {
		t.Fatalf(`State().OpCode = %04X, expected F30A`, got)
	}

	m.kb.Press(0x2)
	if err := m.cpu.Step(); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	m.kb.Release(0x2)
	if err := m.cpu.Step(); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	assertVxEq(t, "released key", m.cpu, 3, 2)
	assertPcEq(t, m.cpu, 0x000)
}

func TestStoreOutOfRangeFaults(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x60, 0xAA,
		0xAF, 0xFF,
		0xF1, 0x55,
	})

	err := runNCycles(m.cpu, 3)

	var addrErr *vip8.AddressError
	if !errors.As(err, &addrErr) {
		t.Fatalf(`Step() = %v, expected an address error`, err)
	}
	if !errors.Is(err, vip8.ErrAddressOutOfRange) {
		t.Fatalf(`%v does not wrap %v`, err, vip8.ErrAddressOutOfRange)
	}
	if addrErr.Address != 0x1000 {
		t.Fatalf(`address = %04X, expected 1000`, addrErr.Address)
	}
	if m.cpu.Memory[0xFFF] != 0 {
		t.Fatalf(`a failed store wrote memory[FFF] = %02X`, m.cpu.Memory[0xFFF])
	}
}

func TestLoadOutOfRangeWraps(t *testing.T) {
	m := newTestMachine(t, []byte{
		0xAF, 0xFF,
		0xF1, 0x65,
	}, withQuirks(vip8.CosmacQuirks))
	if err := m.cpu.Memory.Write(0xFFF, 0x42); err != nil {
		t.Fatal(err)
	}

	if err := runNCycles(m.cpu, 2); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	assertVxEq(t, "memory[FFF]", m.cpu, 0, 0x42)
	assertVxEq(t, "memory[000]", m.cpu, 1, m.cpu.Memory[0x000])
	if m.cpu.I != 0x001 {
		t.Fatalf(`cpu.I = %03X, expected it to wrap to 001`, m.cpu.I)
	}
}

func TestStoreIntoInterpreterAreaFaults(t *testing.T) {
	m := newTestMachine(t, []byte{
		0xA0, 0x50,
		0xF0, 0x55,
	})

	err := runNCycles(m.cpu, 2)
	if !errors.Is(err, vip8.ErrAddressOutOfRange) {
		t.Fatalf(`Step() = %v, expected %v`, err, vip8.ErrAddressOutOfRange)
	}
}

func TestUnknownOpcode(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x60, 0x01,
		0xFF, 0xFF,
	})

	err := runNCycles(m.cpu, 2)

	var unknown vip8.ErrOpCodeUnknown
	if !errors.As(err, &unknown) {
		t.Fatalf(`Step() = %v, expected an unknown opcode error`, err)
	}
	if unknown.OpCode != 0xFFFF || unknown.Pc != 0x202 {
		t.Fatalf(`error = %+v, expected opcode FFFF at 202`, unknown)
	}

	if err := m.cpu.RunFrame(); err != unknown {
		t.Fatalf(`RunFrame() after a failure = %v, expected %v`, err, unknown)
	}

	m.cpu.Reset()
	if m.cpu.LastError() != nil {
		t.Fatalf(`Reset() kept the error %v`, m.cpu.LastError())
	}
}

func TestMachineRoutineInterpreter(t *testing.T) {
	var called uint16
	m := newTestMachine(t, []byte{0x01, 0x23}, func(config *vip8.CpuConfig) {
		config.MachineRoutineInterpreter = func(addr uint16, cpu *vip8.Cpu) error {
			called = addr
			return nil
		}
	})

	if err := m.cpu.Step(); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	if called != 0x123 {
		t.Fatalf(`interpreter called with %03X, expected 123`, called)
	}
}

func TestExecuteRejectsOperandsThatDoNotFit(t *testing.T) {
	m := newTestMachine(t, nil)

	if err := m.cpu.Execute(vip8.LdByte{X: 0x10, KK: 1}); !errors.Is(err, vip8.ErrOperandOutOfRange) {
		t.Fatalf(`Execute() = %v, expected %v`, err, vip8.ErrOperandOutOfRange)
	}
	if err := m.cpu.Execute(nil); !errors.Is(err, vip8.ErrOperandOutOfRange) {
		t.Fatalf(`Execute(nil) = %v, expected %v`, err, vip8.ErrOperandOutOfRange)
	}

	if err := m.cpu.Execute(vip8.LdByte{X: 0x3, KK: 7}); err != nil {
		t.Fatalf(`Execute() returned an error %v`, err)
	}
	assertVxEq(t, "LD V3", m.cpu, 3, 7)
}

func TestRunFrameDrivesDisplayAndBuzzer(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x00, 0xE0,
		0x60, 0x02,
		// ST = 2
		0xF0, 0x18,
		0x12, 0x06,
	}, func(config *vip8.CpuConfig) {
		config.Speed = vip8.MinSpeed
	})

	for i := 0; i < 4; i++ {
		if err := m.cpu.RunFrame(); err != nil {
			t.Fatalf(`RunFrame() returned an error %v`, err)
		}
		if i == 2 && !m.buzzer.IsPlaying {
			t.Fatalf(`the buzzer is silent while the sound timer runs`)
		}
	}

	if m.buzzer.IsPlaying || m.buzzer.Beeps != 1 {
		t.Fatalf(`buzzer = %+v, expected one finished beep`, *m.buzzer)
	}
	if m.display.Renders != 1 {
		t.Fatalf(`display rendered %d times, expected once after CLS`, m.display.Renders)
	}
	if m.cpu.Frames() != 4 || m.cpu.Cycles() != 4 {
		t.Fatalf(`frames = %d cycles = %d, expected 4 and 4`, m.cpu.Frames(), m.cpu.Cycles())
	}
}

func TestPausedFramesDoNothing(t *testing.T) {
	m := newTestMachine(t, []byte{0x60, 0x01}, func(config *vip8.CpuConfig) {
		config.Speed = vip8.MinSpeed
	})
	m.cpu.Stop()

	if err := m.cpu.RunFrame(); err != nil {
		t.Fatalf(`RunFrame() returned an error %v`, err)
	}
	assertPcEq(t, m.cpu, 0x200)

	if err := m.cpu.LoopOnce(); err != nil {
		t.Fatalf(`LoopOnce() returned an error %v`, err)
	}
	if m.cpu.IsRunning() {
		t.Fatalf(`LoopOnce() resumed the cpu`)
	}
	assertVxEq(t, "stepped", m.cpu, 0, 1)
}

func TestSpeedIsClamped(t *testing.T) {
	cpu := vip8.NewCpu(nil, vip8.NewDummyDisplay(), vip8.NewInMemoryKeyboard(), vip8.NewDummyBuzzer())

	if cpu.SpeedInHz() != vip8.DefaultSpeed || cpu.CyclesPerFrame() != 10 {
		t.Fatalf(`default speed = %d (%d per frame)`, cpu.SpeedInHz(), cpu.CyclesPerFrame())
	}

	cpu.SetSpeedInHz(1)
	if cpu.SpeedInHz() != vip8.MinSpeed || cpu.CyclesPerFrame() != 1 {
		t.Fatalf(`speed = %d (%d per frame), expected the minimum`, cpu.SpeedInHz(), cpu.CyclesPerFrame())
	}

	cpu.SetSpeedInHz(1_000_000)
	if cpu.SpeedInHz() != vip8.MaxSpeed || cpu.CyclesPerFrame() != 100 {
		t.Fatalf(`speed = %d (%d per frame), expected the maximum`, cpu.SpeedInHz(), cpu.CyclesPerFrame())
	}
}

func TestResetReloadsTheProgram(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x60, 0x09,
		0xA3, 0x00,
		0xF0, 0x55,
	})

	if err := runNCycles(m.cpu, 3); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	renders := m.display.Renders

	m.cpu.Reset()

	assertPcEq(t, m.cpu, 0x200)
	assertVxEq(t, "V0", m.cpu, 0, 0)
	if m.cpu.Memory[0x300] != 0 {
		t.Fatalf(`memory[300] = %02X, expected it cleared`, m.cpu.Memory[0x300])
	}
	if m.cpu.Memory[0x200] != 0x60 {
		t.Fatalf(`memory[200] = %02X, expected the program`, m.cpu.Memory[0x200])
	}
	if m.display.Renders != renders+1 {
		t.Fatalf(`Reset() did not render the blank screen`)
	}
}

func TestHooks(t *testing.T) {
	m := newTestMachine(t, []byte{0x60, 0x01, 0x12, 0x02}, func(config *vip8.CpuConfig) {
		config.Speed = 120
	})

	var before, after, frames, errs int
	m.cpu.AddBeforeCycleHook(func(cpu *vip8.Cpu) { before++ })
	m.cpu.AddAfterCycleHook(func(cpu *vip8.Cpu) { after++ })
	m.cpu.AddAfterFrameHook(func(cpu *vip8.Cpu) { frames++ })
	m.cpu.AddErrorHook(func(cpu *vip8.Cpu) { errs++ })

	for i := 0; i < 3; i++ {
		if err := m.cpu.RunFrame(); err != nil {
			t.Fatalf(`RunFrame() returned an error %v`, err)
		}
	}

	if before != 6 || after != 6 || frames != 3 || errs != 0 {
		t.Fatalf(`before = %d after = %d frames = %d errors = %d`, before, after, frames, errs)
	}
}

func TestHooksRunWhenKeyWaitResolves(t *testing.T) {
	m := newTestMachine(t, []byte{0xF3, 0x0A, 0x12, 0x02})

	var before, after int
	m.cpu.AddBeforeCycleHook(func(cpu *vip8.Cpu) { before++ })
	m.cpu.AddAfterCycleHook(func(cpu *vip8.Cpu) {
		after++
		if after == 2 && cpu.V[3] != 4 {
			t.Errorf(`after cycle hook saw V3 = %X, expected the key`, cpu.V[3])
		}
	})

	if err := runNCycles(m.cpu, 2); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}
	m.kb.Press(0x4)
	if err := m.cpu.Step(); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	cycles := int(m.cpu.Cycles())
	if cycles != 2 || before != cycles || after != cycles {
		t.Fatalf(`cycles = %d before = %d after = %d`, cycles, before, after)
	}
}

func TestNilCollaboratorsAreDefaulted(t *testing.T) {
	cpu := vip8.NewCpu(nil, nil, nil, nil)

	if err := cpu.LoadProgram([]byte{0x12, 0x00}); err != nil {
		t.Fatalf(`LoadProgram() returned an error %v`, err)
	}
	if err := cpu.Boot(); err != nil {
		t.Fatalf(`Boot() returned an error %v`, err)
	}
	if err := cpu.RunFrame(); err != nil {
		t.Fatalf(`RunFrame() returned an error %v`, err)
	}
	cpu.Reset()

	if cpu.Display == nil || cpu.Keyboard == nil || cpu.Buzzer == nil {
		t.Fatalf(`NewCpu() left a nil collaborator`)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	m := newTestMachine(t, []byte{0x12, 0x00})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := m.cpu.Loop(ctx); err != nil {
		t.Fatalf(`Loop() returned an error %v`, err)
	}
	if m.cpu.Frames() == 0 {
		t.Fatalf(`Loop() did not run any frame`)
	}
}

func TestLoopStopsOnError(t *testing.T) {
	m := newTestMachine(t, []byte{0x00, 0xEE})

	if err := m.cpu.Loop(context.Background()); !errors.Is(err, vip8.ErrStackUnderflow) {
		t.Fatalf(`Loop() = %v, expected %v`, err, vip8.ErrStackUnderflow)
	}
}

func TestLoopRequiresBoot(t *testing.T) {
	cpu := vip8.NewCpu(nil, vip8.NewDummyDisplay(), vip8.NewInMemoryKeyboard(), vip8.NewDummyBuzzer())

	if err := cpu.Loop(context.Background()); !errors.Is(err, vip8.ErrCpuIsNotBooted) {
		t.Fatalf(`Loop() = %v, expected %v`, err, vip8.ErrCpuIsNotBooted)
	}
}

func TestStateSnapshot(t *testing.T) {
	m := newTestMachine(t, []byte{0x60, 0x07, 0xA2, 0x34})

	if err := runNCycles(m.cpu, 1); err != nil {
		t.Fatalf(`Step() returned an error %v`, err)
	}

	s := m.cpu.State()
	if s.OpCode != 0xA234 || s.Pc != 0x202 || s.V[0] != 7 || s.Cycles != 1 {
		t.Fatalf(`state = %+v`, s)
	}

	b, err := s.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 60 {
		t.Fatalf(`len(MarshalBinary()) = %d, expected 60`, len(b))
	}
	if !bytes.Equal(b[:4], []byte{0xA2, 0x34, 0x02, 0x02}) {
		t.Fatalf(`header = % X`, b[:4])
	}
}
