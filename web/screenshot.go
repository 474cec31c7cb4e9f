package web

import (
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/guslan/vip8"
	"golang.org/x/image/draw"
)

const (
	defaultScreenshotScale = 10
	maxScreenshotScale     = 32
)

// Screenshot scales the screen by an integer factor
func Screenshot(screen vip8.Screen, scale int) *image.Gray {
	src := screen.Image()
	dst := image.NewGray(image.Rect(0, 0, vip8.ScreenWidth*scale, vip8.ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return dst
}

func (server *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	scale := defaultScreenshotScale
	if s := r.URL.Query().Get("scale"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxScreenshotScale {
			http.Error(w, "scale must be between 1 and 32", http.StatusBadRequest)
			return
		}
		scale = n
	}

	var screen vip8.Screen
	server.withCpu(func(cpu *vip8.Cpu) {
		screen = cpu.Screen()
	})

	setHeaders(w)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, Screenshot(screen, scale)); err != nil {
		slog.Error("encoding screenshot", slog.Any("error", err))
	}
}
