//go:build mage

// Package main contains Mage build targets for pubdash developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories pubdash reads from or writes to.
var projectDirs = []string{
	".secrets",
	"data",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "pubdash"
	cmdPkg  = "./cmd/pubdash"
)

func binPath() string { return filepath.Join(binDir, binName) }

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	ldflags := "-X main.version=" + strings.TrimSpace(version)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", binPath())
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Serve builds the binary and starts the dashboard.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "serve")
}

// Fetch builds the binary and prints the normalized publication table.
func Fetch() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "fetch")
}

// Summary builds the binary and prints metrics and top-10 breakdowns.
func Summary() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "summary")
}

// Export builds the binary and writes the full publication table as CSV.
func Export() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "export")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// skipDir reports directories excluded from Stats.
func skipDir(path string) bool {
	base := filepath.Base(path)
	return path != "." && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == binDir)
}

// countGoLines walks the directory tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}

// countDocWords counts words in the top-level Markdown files.
func countDocWords(root string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.md"))
	if err != nil {
		return 0, err
	}
	total := 0
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
	}
	return total, nil
}
