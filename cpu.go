package vip8

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// MachineRoutineInterpreter interpretes 0NNN instructions
type MachineRoutineInterpreter func(addr uint16, cpu *Cpu) error

// Chip-8 CPU
type Cpu struct {
	Memory *Memory
	RegisterFile
	Timers

	Quirks Quirks

	cycles uint
	frames uint

	speedInHz      uint
	cyclesPerFrame uint

	screen        Screen
	isScreenDirty bool

	Display  Display
	Keyboard Keyboard
	Buzzer   Buzzer

	MachineRoutineInterpreter MachineRoutineInterpreter

	random io.Reader
	logger *slog.Logger

	program []byte

	isBooted       bool
	isPaused       bool
	waitingForKey  bool
	keyDstRegister byte
	// key seen pressed while waiting for its release, -1 when none
	heldKey   int
	lastError error

	// Hooks that run before every frame
	beforeFrameHooks []Hook
	// Hooks that run before every cycle
	beforeCycleHooks []Hook
	// Hooks that run after every cycle
	afterCycleHooks []Hook
	// Hooks that run after every frame
	afterFrameHooks []Hook
	// Hooks that run after an error
	errorHooks []Hook
}

const (
	DefaultSpeed uint = 600
	MaxSpeed     uint = 6000
	MinSpeed     uint = TimerFrequency
)

// CpuConfig holds the settings resolved when the CPU is built
type CpuConfig struct {
	// Speed in instructions per second
	Speed  uint
	Quirks Quirks
	// Random is the source of CXKK bytes
	Random io.Reader
	Logger *slog.Logger

	MachineRoutineInterpreter MachineRoutineInterpreter
}

type CpuConfigCb func(config *CpuConfig)

// NewCpu builds a CPU over memory. Nil collaborators are replaced by fresh
// memory, dummy display and buzzer, and an in-memory keyboard.
func NewCpu(memory *Memory, display Display, keyboard Keyboard, buzzer Buzzer, configs ...CpuConfigCb) *Cpu {
	config := &CpuConfig{
		Speed:  DefaultSpeed,
		Quirks: DefaultQuirks,
		Random: rand.Reader,
		Logger: slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	if memory == nil {
		memory = NewMemory()
	}
	if display == nil {
		display = NewDummyDisplay()
	}
	if keyboard == nil {
		keyboard = NewInMemoryKeyboard()
	}
	if buzzer == nil {
		buzzer = NewDummyBuzzer()
	}

	cpu := &Cpu{
		Memory: memory,
		Quirks: config.Quirks,

		Display:  display,
		Keyboard: keyboard,
		Buzzer:   buzzer,

		MachineRoutineInterpreter: config.MachineRoutineInterpreter,

		random:  config.Random,
		logger:  config.Logger,
		heldKey: -1,

		beforeFrameHooks: make([]Hook, 0),
		beforeCycleHooks: make([]Hook, 0),
		afterCycleHooks:  make([]Hook, 0),
		afterFrameHooks:  make([]Hook, 0),
		errorHooks:       make([]Hook, 0),
	}
	cpu.RegisterFile.reset()
	cpu.SetSpeedInHz(config.Speed)

	return cpu
}

func (cpu *Cpu) IsRunning() bool {
	return !cpu.isPaused
}

// Start resumes the loop
func (cpu *Cpu) Start() {
	cpu.isPaused = false
}

// Stop pauses the loop between frames
func (cpu *Cpu) Stop() {
	cpu.isPaused = true
}

func (cpu *Cpu) IsSoundTimerActive() bool {
	return cpu.St > 0
}

func (cpu *Cpu) IsDelayTimerActive() bool {
	return cpu.Dt > 0
}

// IsWaitingForKey reports whether an FX0A instruction is holding the CPU
func (cpu *Cpu) IsWaitingForKey() bool {
	return cpu.waitingForKey
}

func (cpu *Cpu) SpeedInHz() uint {
	return cpu.speedInHz
}

// SetSpeedInHz sets the instruction rate, clamped to [MinSpeed, MaxSpeed]
func (cpu *Cpu) SetSpeedInHz(inHz uint) {
	cpu.speedInHz = min(max(inHz, MinSpeed), MaxSpeed)
	cpu.cyclesPerFrame = max(cpu.speedInHz/TimerFrequency, 1)
}

// CyclesPerFrame is the number of instructions run between two timer ticks
func (cpu *Cpu) CyclesPerFrame() uint {
	return cpu.cyclesPerFrame
}

func (cpu *Cpu) Cycles() uint {
	return cpu.cycles
}

func (cpu *Cpu) Frames() uint {
	return cpu.frames
}

// LastError returns the error that stopped the loop, if any
func (cpu *Cpu) LastError() error {
	return cpu.lastError
}

// Screen returns a snapshot of the frame buffer
func (cpu *Cpu) Screen() Screen {
	return cpu.screen
}

// Boot initializes all the components
// If the CPU was already booted, this method is a noop
func (cpu *Cpu) Boot() error {
	if cpu.isBooted {
		return nil
	}

	if err := cpu.Display.Boot(); err != nil {
		return err
	}

	if err := cpu.Keyboard.Boot(); err != nil {
		return err
	}

	if err := cpu.Buzzer.Boot(); err != nil {
		return err
	}

	cpu.isBooted = true

	return nil
}

// LoadProgram keeps a copy of the program and resets the machine with it loaded
func (cpu *Cpu) LoadProgram(program []byte) error {
	if len(program) > MEMORY_SIZE-startOfProgram {
		return ErrProgramDoesNotFitIntoMemory
	}

	cpu.program = append([]byte(nil), program...)
	cpu.Reset()

	cpu.logger.Info("program loaded", slog.Int("size", len(program)))

	return nil
}

// Reset reinitializes the whole machine state and reloads the last program
func (cpu *Cpu) Reset() {
	// the program size was checked when it was loaded
	_ = cpu.Memory.LoadProgram(cpu.program)

	cpu.RegisterFile.reset()
	cpu.Timers = Timers{}
	cpu.screen.Clear()
	cpu.isScreenDirty = false

	cpu.frames = 0
	cpu.cycles = 0
	cpu.waitingForKey = false
	cpu.heldKey = -1
	cpu.lastError = nil

	cpu.Buzzer.Stop()
	if cpu.isBooted {
		if err := cpu.Display.Render(cpu.screen); err != nil {
			cpu.logger.Error("rendering after reset", slog.Any("error", err))
		}
	}

	cpu.logger.Info("machine reset")
}

// LoopAtSpeed sets the speed and starts the loop
func (cpu *Cpu) LoopAtSpeed(ctx context.Context, speedInHz uint) error {
	cpu.SetSpeedInHz(speedInHz)
	return cpu.Loop(ctx)
}

// Loop runs one frame every 1/60 of a second until ctx is done or a frame fails
func (cpu *Cpu) Loop(ctx context.Context) error {
	if !cpu.isBooted {
		return ErrCpuIsNotBooted
	}

	if cpu.lastError != nil {
		return cpu.lastError
	}

	ticker := time.NewTicker(time.Second / TimerFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := cpu.RunFrame(); err != nil {
				return err
			}
		}
	}
}

// LoopOnce runs a single frame bypassing the pause state
func (cpu *Cpu) LoopOnce() error {
	if !cpu.isBooted {
		return ErrCpuIsNotBooted
	}

	prev := cpu.isPaused
	cpu.isPaused = false
	defer func(cpu *Cpu, prev bool) {
		cpu.isPaused = prev
	}(cpu, prev)

	return cpu.RunFrame()
}

// RunFrame runs CyclesPerFrame instructions followed by one timer tick,
// then hands the screen and the sound state to the collaborators
func (cpu *Cpu) RunFrame() error {
	if cpu.lastError != nil {
		return cpu.lastError
	}

	cpu.runBeforeFrameHooks()

	if cpu.isPaused {
		return nil
	}

	for i := uint(0); i < cpu.cyclesPerFrame; i++ {
		if err := cpu.Step(); err != nil {
			return err
		}
	}

	cpu.TickTimers()

	if cpu.IsSoundTimerActive() {
		cpu.Buzzer.Play()
	} else {
		cpu.Buzzer.Stop()
	}

	if cpu.isScreenDirty {
		cpu.isScreenDirty = false
		if err := cpu.Display.Render(cpu.screen); err != nil {
			return cpu.fail(fmt.Errorf("rendering frame: %w", err))
		}
	}

	cpu.frames++

	cpu.runAfterFrameHooks()

	return nil
}

// TickTimers decrements the delay and sound timers.
// The host calls it at TimerFrequency, independently of Step.
func (cpu *Cpu) TickTimers() {
	cpu.Timers.Tick()
}

// Step runs one fetch, decode and execute cycle.
// While an FX0A instruction is waiting, Step only polls the keyboard.
func (cpu *Cpu) Step() error {
	if cpu.waitingForKey {
		k, ok := cpu.pollKey()
		if !ok {
			return nil
		}
		cpu.runBeforeCycleHooks()
		cpu.resolveKey(k)
		cpu.cycles++
		cpu.runAfterCycleHooks()

		return nil
	}

	cpu.runBeforeCycleHooks()

	pc := cpu.Pc
	opCode, err := cpu.fetch()
	if err != nil {
		return cpu.fail(err)
	}

	ins, err := Decode(opCode)
	if err != nil {
		return cpu.fail(ErrOpCodeUnknown{OpCode: opCode, Pc: pc})
	}

	if cpu.logger.Enabled(context.Background(), slog.LevelDebug) {
		cpu.logger.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%03X", pc),
			"opcode", fmt.Sprintf("0x%04X", opCode),
			"instr", ins.String(),
		)
	}

	if err := cpu.execute(ins); err != nil {
		return cpu.fail(err)
	}

	cpu.cycles++
	cpu.runAfterCycleHooks()

	return nil
}

func (cpu *Cpu) fail(err error) error {
	cpu.lastError = err
	cpu.logger.Error("cpu halted", slog.Any("error", err), slog.String("pc", fmt.Sprintf("0x%03X", cpu.Pc)))
	cpu.runErrorHooks()

	return err
}

// fetch reads the opcode at Pc and moves Pc to the next instruction
func (cpu *Cpu) fetch() (uint16, error) {
	hi, err := cpu.load(uint32(cpu.Pc))
	if err != nil {
		return 0, err
	}
	lo, err := cpu.load(uint32(cpu.Pc) + 1)
	if err != nil {
		return 0, err
	}
	cpu.jump(uint32(cpu.Pc) + 2)

	return uint16(hi)<<8 | uint16(lo), nil
}

// pollKey checks the keyboard for a pending FX0A.
// It returns the key once the wait is over.
func (cpu *Cpu) pollKey() (byte, bool) {
	if cpu.Quirks.KeyWait == KeyWaitRelease && cpu.heldKey >= 0 {
		k := byte(cpu.heldKey)
		if cpu.Keyboard.IsPressed(k) {
			return 0, false
		}
		return k, true
	}

	k, pressed := cpu.Keyboard.GetPressed()
	if !pressed {
		return 0, false
	}

	if cpu.Quirks.KeyWait == KeyWaitRelease {
		cpu.heldKey = int(k)
		return 0, false
	}

	return k, true
}

func (cpu *Cpu) resolveKey(k byte) {
	cpu.V[cpu.keyDstRegister] = k
	cpu.waitingForKey = false
	cpu.heldKey = -1
	cpu.jump(uint32(cpu.Pc) + 2)
}

// jump sets Pc, masking it to 12 bits when addresses wrap.
// Out of range values are kept so the next fetch reports them.
func (cpu *Cpu) jump(addr uint32) {
	if cpu.Quirks.Address == AddressWrap {
		addr &= lastAddress
	}
	cpu.Pc = uint16(addr)
}

func (cpu *Cpu) resolve(addr uint32, op string) (uint16, error) {
	if addr > lastAddress {
		if cpu.Quirks.Address == AddressWrap {
			return uint16(addr & lastAddress), nil
		}
		return 0, &AddressError{Address: uint16(addr), Op: op}
	}

	return uint16(addr), nil
}

func (cpu *Cpu) load(addr uint32) (byte, error) {
	a, err := cpu.resolve(addr, "read")
	if err != nil {
		return 0, err
	}

	return cpu.Memory.Read(a)
}

// loadBlock reads n bytes starting at I
func (cpu *Cpu) loadBlock(n int) ([]byte, error) {
	data := make([]byte, n)
	for i := range data {
		b, err := cpu.load(uint32(cpu.I) + uint32(i))
		if err != nil {
			return nil, err
		}
		data[i] = b
	}

	return data, nil
}

// storeBlock writes data starting at I. Every address is checked before
// the first byte is written, so a failing store leaves memory untouched.
func (cpu *Cpu) storeBlock(data []byte) error {
	addrs := make([]uint16, len(data))
	for i := range data {
		a, err := cpu.resolve(uint32(cpu.I)+uint32(i), "write")
		if err != nil {
			return err
		}
		if a < startOfProgram {
			return &AddressError{Address: a, Op: "write"}
		}
		addrs[i] = a
	}

	for i, a := range addrs {
		if err := cpu.Memory.Write(a, data[i]); err != nil {
			return err
		}
	}

	return nil
}

// moveIndex adds n to I, masking it to 12 bits when addresses wrap
func (cpu *Cpu) moveIndex(n uint16) {
	cpu.I += n
	if cpu.Quirks.Address == AddressWrap {
		cpu.I &= lastAddress
	}
}
