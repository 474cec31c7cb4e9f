package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

// parseKeyMessage parses "down <hex key>" and "up <hex key>"
func parseKeyMessage(msg string) (key byte, down bool, err error) {
	action, hex, ok := strings.Cut(strings.TrimSpace(msg), " ")
	if !ok {
		return 0, false, fmt.Errorf("malformed key message %q", msg)
	}

	switch action {
	case "down":
		down = true
	case "up":
		down = false
	default:
		return 0, false, fmt.Errorf("unknown key action %q", action)
	}

	k, err := strconv.ParseUint(hex, 16, 8)
	if err != nil || k > 0xF {
		return 0, false, fmt.Errorf("invalid key %q", hex)
	}

	return byte(k), down, nil
}

func (server *Server) handleKeypad(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	slog.Info("Connecting to keypad")
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Info("Disconnecting from keypad")
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		k, down, err := parseKeyMessage(string(msg))
		if err != nil {
			slog.Warn("ignoring key message", slog.Any("error", err))
			continue
		}

		if down {
			server.Press(k)
		} else {
			server.Release(k)
		}
	}
}
