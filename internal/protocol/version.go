// Package protocol describes the positional program record exchanged with
// capture backends. Only the record layout is modelled; the wire protocol
// itself lives elsewhere.
package protocol

import (
	"errors"
	"fmt"
)

// ErrUnsupportedVersion is returned by Lookup for unknown protocol versions.
var ErrUnsupportedVersion = errors.New("unsupported protocol version")

// Version is a backend protocol version.
type Version int

// layout holds the offsets of the program record fields this package decodes.
// A negative offset means the field is absent from the layout.
type layout struct {
	size        int
	title       int
	subtitle    int
	description int
	category    int
	chanID      int
	chanNum     int
	callSign    int
	chanName    int
	filename    int
	fileSizeHi  int
	fileSizeLo  int
	fileSize    int
	start       int
	end         int
	hostname    int
	recStart    int
	recEnd      int
	recGroup    int
}

// legacyLayout splits the file size into two 32 bit halves.
func legacyLayout(size int) layout {
	return layout{
		size: size, title: 0, subtitle: 1, description: 2, category: 3,
		chanID: 4, chanNum: 5, callSign: 6, chanName: 7, filename: 8,
		fileSizeHi: 9, fileSizeLo: 10, fileSize: -1,
		start: 11, end: 12, hostname: 16, recStart: 26, recEnd: 27, recGroup: 30,
	}
}

var compactLayout = layout{
	size: 41, title: 0, subtitle: 1, description: 2, category: 3,
	chanID: 4, chanNum: 5, callSign: 6, chanName: 7, filename: 8,
	fileSizeHi: -1, fileSizeLo: -1, fileSize: 9,
	start: 10, end: 11, hostname: 13, recStart: 23, recEnd: 24, recGroup: 26,
}

func (v Version) layout() (layout, bool) {
	switch {
	case v >= 40 && v <= 48:
		return legacyLayout(46), true
	case v == 50 || v == 56:
		return legacyLayout(47), true
	case v >= 57 && v <= 63:
		return compactLayout, true
	}
	return layout{}, false
}

// Lookup validates a numeric protocol version.
func Lookup(n int) (Version, error) {
	v := Version(n)
	if _, ok := v.layout(); !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, n)
	}
	return v, nil
}

// RecordSize is the number of fields in a program record for this version,
// or 0 when the version is unsupported.
func (v Version) RecordSize() int {
	l, _ := v.layout()
	return l.size
}
