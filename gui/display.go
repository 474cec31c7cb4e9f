package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/vip8"
)

var ScreenBgColor = rl.Gold
var ScreenPixelColor = rl.Yellow

var _ vip8.Display = (*ConsoleApp)(nil)

// Boot implements vip8.Display.
func (app *ConsoleApp) Boot() error {
	return nil
}

// Render implements vip8.Display.
func (app *ConsoleApp) Render(screen vip8.Screen) error {
	app.screen = screen

	return nil
}

func (app *ConsoleApp) drawScreen() {
	for y := 0; y < vip8.ScreenHeight; y++ {
		for x := 0; x < vip8.ScreenWidth; x++ {
			color := ScreenBgColor
			if app.screen.Pixel(x, y) {
				color = ScreenPixelColor
			}

			rl.DrawRectangle(
				ScreenPositionX+ScreenPixelSize*int32(x),
				ScreenPositionY+ScreenPixelSize*int32(y),
				ScreenPixelSize,
				ScreenPixelSize,
				color)
		}
	}
}
