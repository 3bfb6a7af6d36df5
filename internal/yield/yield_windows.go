//go:build windows

package yield

import "golang.org/x/sys/windows"

var (
	modkernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procSwitchToThread = modkernel32.NewProc("SwitchToThread")
)

func osYield() {
	// The return value only reports whether another thread was scheduled.
	_, _, _ = procSwitchToThread.Call()
}
