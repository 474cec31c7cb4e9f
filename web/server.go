package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/guslan/vip8"
)

// Server runs a CPU in the background and exposes it over HTTP and websockets.
// Every frame and every control action holds mu, so HTTP handlers never
// observe a half executed instruction.
type Server struct {
	*vip8.InMemoryKeyboard

	cpu      *vip8.Cpu
	mu       sync.Mutex
	debugger *HttpDebugger

	display *displayClient
	wsMutex sync.RWMutex

	config ServerConfig
	mux    *http.ServeMux
}

type ServerConfig struct {
	UseDebugger bool
	// StaticDir, when set, is served at /
	StaticDir string
	Buzzer    vip8.Buzzer
	// Cpu configures the underlying CPU
	Cpu []vip8.CpuConfigCb
}
type ServerConfigCb func(config *ServerConfig)

const maxProgramSize = vip8.MEMORY_SIZE

func NewServer(mem *vip8.Memory, configs ...ServerConfigCb) *Server {
	config := ServerConfig{
		UseDebugger: false,
		Buzzer:      vip8.NewDummyBuzzer(),
	}
	for _, cb := range configs {
		cb(&config)
	}

	s := &Server{
		InMemoryKeyboard: vip8.NewInMemoryKeyboard(),
		config:           config,
		mux:              http.NewServeMux(),
	}

	s.cpu = vip8.NewCpu(mem, s, s.InMemoryKeyboard, config.Buzzer, config.Cpu...)
	if config.UseDebugger {
		s.debugger = NewHttpDebugger(s.cpu)
	}

	s.routes()

	return s
}

// Cpu returns the underlying CPU. Callers must not use it while the server runs.
func (server *Server) Cpu() *vip8.Cpu {
	return server.cpu
}

func (server *Server) Speed(s uint) {
	server.withCpu(func(cpu *vip8.Cpu) {
		cpu.SetSpeedInHz(s)
	})
}

// LoadProgram loads the program into memory and sets the PC to the start-of-program address
func (server *Server) LoadProgram(program []byte) error {
	var err error
	server.withCpu(func(cpu *vip8.Cpu) {
		err = cpu.LoadProgram(program)
	})

	return err
}

// Handler returns the HTTP routes of the server
func (server *Server) Handler() http.Handler {
	return server.mux
}

func (server *Server) withCpu(f func(cpu *vip8.Cpu)) {
	server.mu.Lock()
	defer server.mu.Unlock()

	f(server.cpu)
}

// Run boots the CPU and runs one frame every 1/60 of a second until ctx is done
// or a frame fails. The CPU starts paused.
func (server *Server) Run(ctx context.Context) error {
	var err error
	server.withCpu(func(cpu *vip8.Cpu) {
		if err = cpu.Boot(); err == nil {
			cpu.Stop()
		}
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second / vip8.TimerFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			server.withCpu(func(cpu *vip8.Cpu) {
				if cpu.LastError() == nil {
					err = cpu.RunFrame()
				}
			})
			if err != nil {
				slog.Error("cpu stopped", slog.Any("error", err))
				// keep serving so the state can be inspected and reset
				err = nil
			}
		}
	}
}

// Listen serves HTTP on port and runs the CPU until ctx is done
func (server *Server) Listen(ctx context.Context, port int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutting down http server", slog.Any("error", err))
		}
	}()

	slog.Info("Listening on port", slog.Int("port", port))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	cancel()
	return <-errCh
}

func (server *Server) routes() {
	if server.config.StaticDir != "" {
		server.mux.Handle("/", http.FileServer(http.Dir(server.config.StaticDir)))
	}

	server.mux.HandleFunc("POST /start", server.control("Starting", func(cpu *vip8.Cpu) error {
		cpu.Start()
		return nil
	}))
	server.mux.HandleFunc("POST /stop", server.control("Stopping", func(cpu *vip8.Cpu) error {
		cpu.Stop()
		return nil
	}))
	server.mux.HandleFunc("POST /reset", server.control("Stopping and resetting", func(cpu *vip8.Cpu) error {
		cpu.Stop()
		cpu.Reset()
		return nil
	}))
	server.mux.HandleFunc("POST /step", server.control("Single Frame", func(cpu *vip8.Cpu) error {
		return cpu.LoopOnce()
	}))
	server.mux.HandleFunc("POST /load", server.handleLoad)
	server.mux.HandleFunc("GET /display", server.handleDisplay)
	server.mux.HandleFunc("GET /keypad", server.handleKeypad)
	server.mux.HandleFunc("GET /screenshot.png", server.handleScreenshot)
	if server.debugger != nil {
		server.mux.HandleFunc("GET /debugger", server.debugger.ServeHTTP)
	}
}

func setHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

	w.Header().Set("Cache-Control", "no-cache")
}

func (server *Server) control(msg string, action func(cpu *vip8.Cpu) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setHeaders(w)

		slog.Info(msg)
		var err error
		server.withCpu(func(cpu *vip8.Cpu) {
			err = action(cpu)
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (server *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	setHeaders(w)

	program, err := io.ReadAll(io.LimitReader(r.Body, maxProgramSize+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := server.LoadProgram(program); err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	slog.Info("Program loaded", slog.Int("size", len(program)))
	w.WriteHeader(http.StatusNoContent)
}
