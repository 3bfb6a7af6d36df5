//go:build !linux && !windows

package yield

func osYield() {}
