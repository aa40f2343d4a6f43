// Package ui prints colored status messages and read summaries for the
// datedreader CLI. Everything goes to stderr by default; lines read from
// dated files are written by the caller to stdout.
package ui
