package main

import "github.com/alkhizanah/fajr/kernel/kmain"

// main is a dummy call to the actual kernel entrypoint. It exists to
// prevent the Go compiler from optimizing away the real kernel code; the rt0
// layer calls bootinfo.Init with the boot loader's responses and jumps here
// before any of Go's own runtime init machinery would otherwise get a chance
// to run.
func main() {
	kmain.Kmain()
}
