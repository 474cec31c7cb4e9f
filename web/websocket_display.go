package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/guslan/vip8"
)

var upgrader = websocket.Upgrader{} // use default options

var _ vip8.Display = (*Server)(nil)

// displayClient holds the latest frame not yet written to a display socket.
// Only the newest frame is kept, a slow client skips frames.
type displayClient struct {
	frames chan []byte
}

func newDisplayClient() *displayClient {
	return &displayClient{frames: make(chan []byte, 1)}
}

// offer replaces any pending frame with frame. It never blocks.
func (c *displayClient) offer(frame []byte) {
	for {
		select {
		case c.frames <- frame:
			return
		default:
		}
		select {
		case <-c.frames:
		default:
		}
	}
}

// Boot implements Display.
func (server *Server) Boot() error {
	return nil
}

func (server *Server) setWs(client *displayClient) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	server.display = client
}

func (server *Server) unsetWs(client *displayClient) {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	// a newer client may have replaced this one already
	if server.display == client {
		server.display = nil
	}
}

// Render implements Display.
// Frames are sent as 256 bytes, one bit per pixel, most significant bit first.
// Render runs under the CPU lock, so it only queues the frame for the socket writer.
func (server *Server) Render(screen vip8.Screen) error {
	server.wsMutex.RLock()
	defer server.wsMutex.RUnlock()

	if server.display != nil {
		server.display.offer(screen.Packed())
	}

	return nil
}

func (server *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	slog.Info("Connecting to display")

	client := newDisplayClient()
	// hold the cpu so no frame is rendered between the snapshot and the swap
	server.withCpu(func(cpu *vip8.Cpu) {
		client.offer(cpu.Screen().Packed())
		server.setWs(client)
	})
	defer server.unsetWs(client)

	// the client never sends anything, reading detects the disconnect
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			slog.Info("Disconnecting from display")
			return
		case frame := <-client.frames:
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				slog.Warn("dropping display client", slog.Any("error", err))
				return
			}
		}
	}
}
