// Package gui runs the console in a raylib window
package gui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/vip8"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = ToolbarHeight + 1

	MessageBarGap    = 5
	MessageBarHeight = 30
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

type AppConfig struct {
	Title  string
	Layout vip8.KeyboardLayout
	Buzzer vip8.Buzzer
	// Autostart runs the program as soon as it is loaded
	Autostart bool
	// Cpu configures the underlying CPU
	Cpu []vip8.CpuConfigCb
}
type AppConfigCb func(config *AppConfig)

type ConsoleApp struct {
	*vip8.InMemoryKeyboard
	// The underlying console
	Cpu *vip8.Cpu
	// Speed in Hz, as shown by the slider
	speed float32
	// Last rendered frame
	screen vip8.Screen

	config            AppConfig
	keyboardLookupMap map[ScanCode]byte

	// Window width and height
	winW, winH int

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool

	loadedProgramPath string

	lastMessage      string
	lastMessageColor rl.Color
}

func NewConsoleApp(configs ...AppConfigCb) *ConsoleApp {
	config := AppConfig{
		Title:  "vip8",
		Layout: vip8.DefaultKeyboardLayout,
		Buzzer: vip8.NewDummyBuzzer(),
	}
	for _, cb := range configs {
		cb(&config)
	}

	app := &ConsoleApp{
		InMemoryKeyboard:  vip8.NewInMemoryKeyboard(),
		config:            config,
		keyboardLookupMap: scanCodeMap(config.Layout),
	}

	app.Cpu = vip8.NewCpu(vip8.NewMemory(), app, app.InMemoryKeyboard, config.Buzzer, config.Cpu...)
	app.speed = float32(app.Cpu.SpeedInHz())
	app.updateWindowSize()

	return app
}

// Run opens the window and runs one frame per drawn frame until the window
// is closed or ctx is done. The CPU only runs on this goroutine.
func (app *ConsoleApp) Run(ctx context.Context) error {
	if err := app.Cpu.Boot(); err != nil {
		return fmt.Errorf("booting cpu: %w", err)
	}
	if !app.config.Autostart || !app.hasProgramLoaded() {
		app.Cpu.Stop()
	}

	rl.InitWindow(int32(app.winW), int32(app.winH), app.config.Title)
	defer rl.CloseWindow()

	gui.LoadStyleDefault()
	rl.SetTargetFPS(vip8.TimerFrequency)
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.updateCpuSpeed()
		app.runFrame()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		app.drawMessageBar()
		app.drawScreen()
		app.drawToolbar()

		rl.EndDrawing()
	}

	return nil
}

// Load reads a ROM from disk into the console
func (app *ConsoleApp) Load(path string) error {
	program, err := os.ReadFile(path)
	if err != nil {
		app.showMessage(err.Error(), MessageError)
		return fmt.Errorf("loading program: %w", err)
	}

	if err = app.Cpu.LoadProgram(program); err != nil {
		app.showMessage(err.Error(), MessageError)
		return fmt.Errorf("loading program %s: %w", path, err)
	}

	app.loadedProgramPath = path
	slog.Info("Program loaded", slog.String("path", path))
	app.showMessage(fmt.Sprintf("Program '%s' loaded", filepath.Base(path)), MessageSuccess)

	if app.config.Autostart {
		app.Cpu.Start()
	}

	return nil
}

func (app *ConsoleApp) updateWindowSize() {
	app.winW = vip8.ScreenWidth * ScreenPixelSize
	app.winH = vip8.ScreenHeight*ScreenPixelSize + ToolbarHeight + MessageBarHeight
}

func (app *ConsoleApp) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *ConsoleApp) runFrame() {
	if app.Cpu.LastError() != nil {
		return
	}

	if err := app.Cpu.RunFrame(); err != nil {
		app.Cpu.Stop()
		app.showMessage(err.Error(), MessageError)
	}
}

func (app *ConsoleApp) handleFileLoad() {
	if !rl.IsFileDropped() {
		return
	}

	files := rl.LoadDroppedFiles()
	defer rl.UnloadDroppedFiles()

	slog.Info("Files were dropped", "files", strings.Join(files, ","))
	if len(files) > 0 {
		if err := app.Load(files[0]); err != nil {
			slog.Error("Error loading program", slog.Any("error", err))
		}
	}
}

func (app *ConsoleApp) handleActions() {
	if app.startBtn {
		if app.hasProgramLoaded() {
			app.Cpu.Start()
			slog.Info("Starting the console")
		} else {
			app.showMessage("There is no program loaded", MessageWarning)
		}
	}
	if app.stopBtn {
		app.Cpu.Stop()
		slog.Info("Stopping the console")
	}
	if app.restBtn {
		app.Cpu.Reset()
		app.showMessage("Program reset", MessageInfo)
		slog.Info("Resetting the program to the beginning")
	}
	if app.stepBtn {
		if err := app.Cpu.LoopOnce(); err != nil && !errors.Is(err, vip8.ErrCpuIsNotBooted) {
			app.showMessage(err.Error(), MessageError)
		}
	}
}

func (app *ConsoleApp) handleKeyPress() {
	var state vip8.KeyboardState
	for scanCode, key := range app.keyboardLookupMap {
		if rl.IsKeyDown(scanCode) {
			state[key] = true
		}
	}
	app.Set(state)
}

func (app *ConsoleApp) updateCpuSpeed() {
	app.Cpu.SetSpeedInHz(uint(app.speed))
}

func (app *ConsoleApp) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(app.winW), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		app.statusText(),
	)

	gui.Label(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, 26, 70, 20),
		fmt.Sprintf("%d Hz", app.Cpu.SpeedInHz()),
	)

	if gui.Button(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150+70, 26, 30, 20),
		gui.IconText(gui.ICON_ROTATE, ""),
	) {
		app.speed = float32(vip8.DefaultSpeed)
	}

	app.speed = gui.Slider(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, ToolbarGap, 100, 20),
		"", fmt.Sprintf("%d", vip8.MaxSpeed),
		app.speed,
		float32(vip8.MinSpeed),
		float32(vip8.MaxSpeed),
	)
}

func (app *ConsoleApp) statusText() string {
	switch {
	case app.Cpu.LastError() != nil:
		return "Halted"
	case !app.Cpu.IsRunning():
		return "Stopped"
	case app.Cpu.IsWaitingForKey():
		return "Waiting key"
	default:
		return "Running"
	}
}

func (app *ConsoleApp) showMessage(msg string, mType MessageType) {
	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *ConsoleApp) drawMessageBar() {
	rl.DrawRectangle(
		0,
		int32(app.winH)-MessageBarHeight,
		int32(app.winW),
		MessageBarHeight,
		MessageBarBgColor,
	)

	rl.DrawText(
		app.lastMessage,
		MessageBarGap,
		int32(app.winH)-MessageBarHeight+MessageBarGap,
		16,
		app.lastMessageColor,
	)
}
