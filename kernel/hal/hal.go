package hal

import (
	"nanokernel/kernel/driver/tty"
	"nanokernel/kernel/driver/video/console"
)

const (
	screenWidth  = 80
	screenHeight = 25
)

var (
	egaConsole = &console.Ega{}

	// ActiveTerminal points to the currently active terminal.
	ActiveTerminal = &tty.Vt{}
)

// InitTerminal attaches the active terminal to the fixed-address VGA text
// buffer so the kernel can emit output before any other subsystem is up.
func InitTerminal() {
	egaConsole.Init(screenWidth, screenHeight, console.VideoVA)
	ActiveTerminal.AttachTo(egaConsole)
}

// BumpTickCounter writes the low byte of count to the top-right screen cell.
// The timer interrupt handler calls this once per tick so the kernel's
// liveness is visible even when nothing else is printing to the screen.
func BumpTickCounter(count uint64) {
	egaConsole.BumpTickCounter(count)
}
