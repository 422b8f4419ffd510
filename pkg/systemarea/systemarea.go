// Package systemarea holds the raw bytes of an image's system area: the
// first 16 logical sectors, reserved by ECMA-119 for boot loaders and other
// platform-specific use and never interpreted by the volume descriptor
// scanner.
package systemarea

// SystemArea is the 32 KiB system area preceding LSN 16.
type SystemArea [32 * 1024]byte
