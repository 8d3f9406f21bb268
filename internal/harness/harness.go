// Package harness assembles, links, and runs generated GAS text against
// a small embedded C driver, the way the teacher's own cmdRun compiles a
// source file to a throwaway executable and runs it. It's the only path
// that actually exercises emitted x86 output end to end.
package harness

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

//go:embed driver.c
var driverSrc []byte

// Run assembles asm (GAS text for System-V AMD64), links it against the
// rasterization driver, executes the result with size as its sole
// argument, and copies the program's stdout (a P4 PBM image) to w.
// stderr is passed through so assembler or linker diagnostics reach the
// caller's terminal.
func Run(asm string, size int, w io.Writer) error {
	tmpDir := "/dev/shm"
	if _, err := os.Stat(tmpDir); os.IsNotExist(err) {
		tmpDir = os.TempDir()
	}

	pid := os.Getpid()
	asmPath := filepath.Join(tmpDir, fmt.Sprintf("sdfc_render_%d.s", pid))
	objPath := filepath.Join(tmpDir, fmt.Sprintf("sdfc_render_%d.o", pid))
	driverPath := filepath.Join(tmpDir, fmt.Sprintf("sdfc_render_%d.c", pid))
	exePath := filepath.Join(tmpDir, fmt.Sprintf("sdfc_render_%d", pid))
	defer os.Remove(asmPath)
	defer os.Remove(objPath)
	defer os.Remove(driverPath)
	defer os.Remove(exePath)

	if err := os.WriteFile(asmPath, []byte(asm), 0o600); err != nil {
		return fmt.Errorf("harness: writing assembly: %w", err)
	}
	if err := os.WriteFile(driverPath, driverSrc, 0o600); err != nil {
		return fmt.Errorf("harness: writing driver: %w", err)
	}

	asCmd := exec.Command("as", "--64", "-o", objPath, asmPath)
	asCmd.Stderr = os.Stderr
	if err := asCmd.Run(); err != nil {
		return fmt.Errorf("harness: as failed: %w", err)
	}

	ccCmd := exec.Command("cc", "-o", exePath, driverPath, objPath)
	ccCmd.Stderr = os.Stderr
	if err := ccCmd.Run(); err != nil {
		return fmt.Errorf("harness: cc failed: %w", err)
	}

	runCmd := exec.Command(exePath, fmt.Sprintf("%d", size))
	runCmd.Stdout = w
	runCmd.Stderr = os.Stderr
	if err := runCmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("harness: render exited with status %d", exitErr.ExitCode())
		}
		return fmt.Errorf("harness: running renderer: %w", err)
	}

	return nil
}
