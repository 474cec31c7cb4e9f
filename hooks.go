package vip8

// Hook observes the CPU between cycles or frames. Hooks run on the CPU goroutine.
type Hook func(cpu *Cpu)

// AddBeforeFrameHook adds a hook that runs before every frame, paused or not
func (cpu *Cpu) AddBeforeFrameHook(h Hook) int {
	cpu.beforeFrameHooks = append(cpu.beforeFrameHooks, h)

	return len(cpu.beforeFrameHooks)
}

// AddBeforeCycleHook adds a hook that runs before every instruction
func (cpu *Cpu) AddBeforeCycleHook(h Hook) int {
	cpu.beforeCycleHooks = append(cpu.beforeCycleHooks, h)

	return len(cpu.beforeCycleHooks)
}

// AddAfterCycleHook adds a hook that runs after every successful instruction
func (cpu *Cpu) AddAfterCycleHook(h Hook) int {
	cpu.afterCycleHooks = append(cpu.afterCycleHooks, h)

	return len(cpu.afterCycleHooks)
}

// AddAfterFrameHook adds a hook that runs after every completed frame
func (cpu *Cpu) AddAfterFrameHook(h Hook) int {
	cpu.afterFrameHooks = append(cpu.afterFrameHooks, h)

	return len(cpu.afterFrameHooks)
}

// AddErrorHook adds a hook that runs when a cycle or a frame fails
func (cpu *Cpu) AddErrorHook(h Hook) int {
	cpu.errorHooks = append(cpu.errorHooks, h)

	return len(cpu.errorHooks)
}

func (cpu *Cpu) runBeforeFrameHooks() {
	cpu.runHooks(cpu.beforeFrameHooks)
}

func (cpu *Cpu) runBeforeCycleHooks() {
	cpu.runHooks(cpu.beforeCycleHooks)
}

func (cpu *Cpu) runAfterCycleHooks() {
	cpu.runHooks(cpu.afterCycleHooks)
}

func (cpu *Cpu) runAfterFrameHooks() {
	cpu.runHooks(cpu.afterFrameHooks)
}

func (cpu *Cpu) runErrorHooks() {
	cpu.runHooks(cpu.errorHooks)
}

func (cpu *Cpu) runHooks(hooks []Hook) {
	for _, h := range hooks {
		h(cpu)
	}
}
