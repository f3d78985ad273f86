package hal

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/driver/tty"
	"github.com/alkhizanah/fajr/kernel/driver/video/console"
	"github.com/alkhizanah/fajr/kernel/hal/bootinfo"
)

var (
	egaConsole = &console.Ega{}

	// ActiveTerminal points to the currently active terminal.
	ActiveTerminal = &tty.Vt{}
)

// InitTerminal provides a basic terminal to allow the kernel to emit some
// output till everything is properly setup. It requires bootinfo.Init to
// have already recorded the boot loader's framebuffer response.
func InitTerminal() *kernel.Error {
	fbInfo, err := bootinfo.MustFramebuffer()
	if err != nil {
		return err
	}

	egaConsole.Init(uint16(fbInfo.Width), uint16(fbInfo.Height), fbInfo.Addr)
	ActiveTerminal.AttachTo(egaConsole)
	return nil
}
