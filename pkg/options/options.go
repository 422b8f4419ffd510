// Package options defines the functional options accepted by Open/OpenFuzzy:
// which extensions to recognize, how far to search for a fuzzy-located PVD,
// whether to strip version suffixes from names, and where to route logging.
package options

import (
	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/go-logr/logr"
)

// Options controls how an image is opened and decoded.
type Options struct {
	ParseOnOpen      bool
	StripVersionInfo bool
	ExtensionMask    consts.ExtensionMask
	PreferJoliet     bool
	FuzzRadius       int
	BootDirectory    string
	Logger           logr.Logger
}

// Option mutates an Options value.
type Option func(*Options)

// Default returns the baseline Options every Open call starts from: every
// recognized extension enabled, Joliet preferred over the plain ISO9660
// tree when both are present, version suffixes stripped, and a fuzzy
// search radius of 0 (OpenFuzzy then uses its own default radius).
func Default() Options {
	return Options{
		ParseOnOpen:      true,
		StripVersionInfo: true,
		ExtensionMask:    consts.ExtensionAll,
		PreferJoliet:     true,
		FuzzRadius:       0,
		BootDirectory:    consts.BOOT_DIRECTORY_NAME,
		Logger:           logr.Discard(),
	}
}

// WithExtensionMask overrides which extensions the reader is allowed to
// recognize; consts.ExtensionAll (the default) recognizes everything. The
// mask gates Joliet supplementary descriptors and El Torito boot records
// only: Rock Ridge entries are decoded whether or not
// consts.ExtensionRockRidge is set.
func WithExtensionMask(mask consts.ExtensionMask) Option {
	return func(o *Options) { o.ExtensionMask = mask }
}

// WithStripVersionInfo sets whether to strip the ";n" version suffix from
// ISO9660 file names.
func WithStripVersionInfo(enabled bool) Option {
	return func(o *Options) { o.StripVersionInfo = enabled }
}

// WithPreferJoliet sets whether the richest Joliet supplementary descriptor
// is used as the root directory instead of the Primary Volume Descriptor's.
func WithPreferJoliet(enabled bool) Option {
	return func(o *Options) { o.PreferJoliet = enabled }
}

// WithFuzzRadius sets how many LSNs on either side of 16 OpenFuzzy's
// locator will try, across every raw frame size, before giving up. A
// radius of 0 makes OpenFuzzy use its default radius (64). Open never
// searches and requires a valid PVD at LSN 16 whatever the radius.
func WithFuzzRadius(radius int) Option {
	return func(o *Options) { o.FuzzRadius = radius }
}

// WithBootDirectory overrides the synthetic directory name El Torito boot
// images are listed under (default "[BOOT]").
func WithBootDirectory(name string) Option {
	return func(o *Options) { o.BootDirectory = name }
}

// WithLogger routes the reader's structured logging through logger.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithParseOnOpen sets whether Open decodes the volume descriptor sequence
// immediately, or leaves the image unparsed until Parse is called.
func WithParseOnOpen(parseOnOpen bool) Option {
	return func(o *Options) { o.ParseOnOpen = parseOnOpen }
}
