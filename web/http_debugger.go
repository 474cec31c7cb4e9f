package web

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/guslan/vip8"
)

const debuggerBacklog = 64

// HttpDebugger streams the CPU state to websocket clients after every cycle
type HttpDebugger struct {
	Cpu *vip8.Cpu

	SendEvery uint

	mu      sync.Mutex
	clients map[chan vip8.State]struct{}
}

// NewHttpDebugger creates a new debugger
// This method will pause the cpu, register the hooks and slow the cpu down to one cycle per frame
func NewHttpDebugger(cpu *vip8.Cpu) *HttpDebugger {
	deb := &HttpDebugger{
		Cpu:       cpu,
		SendEvery: 1,
		clients:   map[chan vip8.State]struct{}{},
	}

	cpu.AddAfterCycleHook(deb.afterCycle)
	cpu.AddErrorHook(deb.publish)
	cpu.SetSpeedInHz(vip8.MinSpeed)

	cpu.Stop()

	return deb
}

func (d *HttpDebugger) afterCycle(cpu *vip8.Cpu) {
	if d.SendEvery > 0 && cpu.Cycles()%d.SendEvery == 0 {
		d.publish(cpu)
	}
}

// publish hands the state to every client. Slow clients lose states rather
// than stall the cpu.
func (d *HttpDebugger) publish(cpu *vip8.Cpu) {
	state := cpu.State()

	d.mu.Lock()
	defer d.mu.Unlock()

	for ch := range d.clients {
		select {
		case ch <- state:
		default:
		}
	}
}

func (d *HttpDebugger) subscribe() chan vip8.State {
	ch := make(chan vip8.State, debuggerBacklog)

	d.mu.Lock()
	d.clients[ch] = struct{}{}
	d.mu.Unlock()

	return ch
}

func (d *HttpDebugger) unsubscribe(ch chan vip8.State) {
	d.mu.Lock()
	delete(d.clients, ch)
	d.mu.Unlock()
}

// ServeHTTP upgrades the connection and writes one binary message per state
func (d *HttpDebugger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("Connecting to debugger")

	// subscribed before the handshake completes so no state is missed
	ch := d.subscribe()
	defer d.unsubscribe(ch)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Info("Listening for events")
	for {
		select {
		case state := <-ch:
			msg, _ := state.MarshalBinary()
			if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				slog.Error("Error writing debugger message", slog.Any("error", err))
				return
			}

		case <-closed:
			return
		}
	}
}
