package main

import (
	"os/exec"
	"runtime"
)

// openPreview opens a file with the platform's default viewer. Failures are
// ignored: previewing is a convenience, not part of the generation result.
func openPreview(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	_ = cmd.Start()
}
