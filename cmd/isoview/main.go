package main

import (
	"fmt"
	"os"
	"time"

	iso9660 "github.com/bgrewell/iso9660reader"
	"github.com/bgrewell/iso9660reader/pkg/directory"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/bgrewell/iso9660reader/pkg/options"
	"github.com/bgrewell/usage"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

// defaultNameColumn is the verbose listing's name column width when the
// terminal size cannot be read (stdout isn't a terminal), and the widest the
// column ever gets.
const defaultNameColumn = 32

func main() {
	u := usage.NewUsage(
		usage.WithApplicationName("isoview"),
		usage.WithApplicationDescription("isoview inspects ISO9660 images, including Rock Ridge, Joliet, and El Torito extensions. It prints volume metadata and walks the directory tree."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "List every file and directory", "optional", nil)
	fuzzy := u.AddBooleanOption("f", "fuzzy", false, "Locate the volume descriptor by fuzzy search instead of requiring it at LSN 16", "optional", nil)
	debug := u.AddBooleanOption("d", "debug", false, "Log parsing internals to stderr", "optional", nil)
	path := u.AddArgument(1, "iso-path", "Path to the ISO image to inspect", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}
	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("iso-path must be provided"))
		os.Exit(1)
	}

	var opts []options.Option
	if *debug {
		opts = append(opts, options.WithLogger(logging.NewSimpleLogger(os.Stderr, 2, true)))
	}

	var (
		img *iso9660.Image
		err error
	)
	if *fuzzy {
		img, err = iso9660.OpenFuzzy(*path, opts...)
	} else {
		img, err = iso9660.Open(*path, opts...)
	}
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	defer img.Close()

	fmt.Println("=== Volume Information ===")
	fmt.Printf("Volume Identifier:      %s\n", img.VolumeIdentifier())
	fmt.Printf("System Identifier:      %s\n", img.SystemIdentifier())
	fmt.Printf("Publisher Identifier:   %s\n", img.PublisherIdentifier())
	fmt.Printf("Application Identifier: %s\n", img.ApplicationIdentifier())
	fmt.Printf("Preparer Identifier:    %s\n", img.PreparerID())
	fmt.Printf("Volume Set Identifier:  %s\n", img.VolumeSetID())
	fmt.Printf("Volume Space Size:      %d logical blocks\n", img.VolumeSpaceSize())
	fmt.Printf("Joliet Level:           %d\n", img.JolietLevel())
	fmt.Printf("CD-ROM XA:              %s\n", img.IsXA())
	fmt.Printf("CD-ROM XA Mode 2:       %s\n", img.IsMode2())
	fmt.Printf("Rock Ridge:             %t\n", haveRockRidge(img))
	fmt.Printf("El Torito:              %t\n", img.HasElTorito())

	fileCount, dirCount := 0, 0
	var totalSize int64
	walkTree(img, img.RootDirectory(), "", *verbose, nameColumnWidth(), &fileCount, &dirCount, &totalSize)

	fmt.Println("\n=== Summary ===")
	fmt.Printf("Files:       %d\n", fileCount)
	fmt.Printf("Directories: %d\n", dirCount)
	fmt.Printf("Total Size:  %d bytes\n", totalSize)
}

// haveRockRidge runs img.HaveRockRidge() behind a spinner: the probe
// recurses a few levels into the tree and a bare image with a cold file
// handle can take long enough that silent output looks hung.
func haveRockRidge(img *iso9660.Image) bool {
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[11],
		Suffix:          " checking for Rock Ridge extensions",
		SuffixAutoColon: true,
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	spinner, err := yacspin.New(cfg)
	if err != nil || !term.IsTerminal(int(os.Stdout.Fd())) {
		return img.HaveRockRidge()
	}

	spinner.Start()
	has := img.HaveRockRidge()
	spinner.Stop()
	return has
}

// nameColumnWidth narrows the verbose listing's name column to fit the
// terminal width when stdout is a terminal, keeping it between 16 and
// defaultNameColumn columns; else it falls back to defaultNameColumn.
func nameColumnWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultNameColumn
	}
	// leave room for the indent, type marker, and trailing size column.
	column := width - 24
	if column < 16 {
		column = 16
	}
	if column > defaultNameColumn {
		column = defaultNameColumn
	}
	return column
}

func walkTree(img *iso9660.Image, dir *directory.Entry, indent string, verbose bool, nameWidth int, files, dirs *int, total *int64) {
	children, err := img.Readdir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%sfailed to list %s: %v\n", indent, dir.FullPath(), err)
		return
	}
	for _, child := range children {
		if child.IsDir() {
			*dirs++
			if verbose {
				fmt.Printf("%sd %s/\n", indent, child.Name())
			}
			walkTree(img, child, indent+"  ", verbose, nameWidth, files, dirs, total)
			continue
		}
		*files++
		*total += child.Size()
		if verbose {
			marker := "-"
			if child.IsSymlink() {
				marker = "l"
			}
			fmt.Printf("%s%s %-*s %d bytes\n", indent, marker, nameWidth, child.Name(), child.Size())
		}
	}
}
