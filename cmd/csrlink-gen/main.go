// Command csrlink-gen generates Go constants for the registers of a
// component manifest.
//
// Usage:
//
//	csrlink-gen -manifest <file.yaml> -output <file.go> [-package <name>] [-csr <csr.csv>]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
)

func main() {
	manifestPath := flag.String("manifest", "", "Component manifest (YAML)")
	output := flag.String("output", "", "Output Go file")
	pkg := flag.String("package", "", "Package name (default: output directory name)")
	csrPath := flag.String("csr", "", "Address table of a build result, adds bus addresses")
	flag.Parse()

	if *manifestPath == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: csrlink-gen -manifest <file.yaml> -output <file.go> [-package <name>] [-csr <csr.csv>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*manifestPath, *output, *pkg, *csrPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(manifestPath, output, pkg, csrPath string) error {
	m, err := device.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	root, err := device.Build(m)
	if err != nil {
		return fmt.Errorf("building %s: %w", manifestPath, err)
	}

	var table *csrmap.Map
	if csrPath != "" {
		if table, err = csrmap.Load(csrPath); err != nil {
			return fmt.Errorf("loading address table: %w", err)
		}
	}

	if pkg == "" {
		abs, err := filepath.Abs(output)
		if err != nil {
			return err
		}
		pkg = filepath.Base(filepath.Dir(abs))
	}

	code, err := Generate(root, table, pkg, filepath.Base(manifestPath))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := writeFormatted(output, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s\n", output)
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Keep the raw output for debugging the generator.
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
