package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	iso9660 "github.com/bgrewell/iso9660reader"
	"github.com/bgrewell/iso9660reader/pkg/directory"
	"github.com/bgrewell/iso9660reader/pkg/options"
)

func main() {
	fuzzy := flag.Bool("fuzzy", false, "Locate the volume descriptor by fuzzy search")
	stripVer := flag.Bool("strip", true, "Strip version info from filenames")
	outputDir := flag.String("o", "./extracted", "Output directory for extracted files")
	bootDir := flag.String("bootdir", "[BOOT]", "Directory name for El Torito boot images")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: isoextract [options] <path-to-iso>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	isoPath := flag.Arg(0)

	img, err := iso9660.Open(isoPath,
		options.WithStripVersionInfo(*stripVer),
		options.WithBootDirectory(*bootDir),
	)
	if !*fuzzy {
		// Open already ran above; a fuzzy retry substitutes a fresh handle.
	} else {
		if img != nil {
			img.Close()
		}
		img, err = iso9660.OpenFuzzy(isoPath,
			options.WithStripVersionInfo(*stripVer),
			options.WithBootDirectory(*bootDir),
		)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open ISO: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	if err := extractAll(img, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to extract image: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("extraction completed successfully to %q\n", *outputDir)
}

func extractAll(img *iso9660.Image, outputDir string) error {
	return extractDir(img, img.RootDirectory(), outputDir)
}

func extractDir(img *iso9660.Image, dir *directory.Entry, outputPath string) error {
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}

	children, err := img.Readdir(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir.FullPath(), err)
	}

	for _, child := range children {
		dest := filepath.Join(outputPath, child.Name())
		if child.IsDir() {
			if err := extractDir(img, child, dest); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(img, child, dest); err != nil {
			return fmt.Errorf("extracting %s: %w", dest, err)
		}
	}
	return nil
}

func extractFile(img *iso9660.Image, entry *directory.Entry, dest string) error {
	if entry.IsSymlink() {
		return os.Symlink(entry.SymlinkTarget(), dest)
	}

	data, err := img.ReadFile(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(dest, data, 0644)
}
