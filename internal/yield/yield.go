// Package yield gives up the processor during spin phases.
//
// Processor first lets other goroutines run on this P, then asks the
// operating system to reschedule the underlying thread where a backend
// exists for the platform (sched_yield on Linux, SwitchToThread on
// Windows). Other platforms only use the goroutine-level yield.
package yield

import "runtime"

// Processor yields the processor to other runnable work.
func Processor() {
	runtime.Gosched()
	osYield()
}
