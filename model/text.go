package model

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Text offsets are counted in UTF-16 code units, like in the JavaScript
// implementation of ProseMirror: an emoji counts as 2, and "é" as 1. It keeps
// the positions compatible with steps produced by other clients.

// TextLength returns the size of the given text in the position scheme.
func TextLength(text string) int {
	n := 0
	for _, r := range text {
		if r >= 0x10000 && r <= utf8.MaxRune {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func isASCII(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func textUnits(text string) []uint16 {
	return utf16.Encode([]rune(text))
}

// sliceText returns the part of text between the from and to offsets.
func sliceText(text string, from, to int) string {
	if isASCII(text) {
		return text[from:to]
	}
	units := textUnits(text)
	return string(utf16.Decode(units[from:to]))
}

// splitsSurrogatePair reports whether offset falls between the two code
// units of a character outside the basic multilingual plane.
func splitsSurrogatePair(text string, offset int) bool {
	if isASCII(text) {
		return false
	}
	n := 0
	for _, r := range text {
		size := 1
		if r >= 0x10000 && r <= utf8.MaxRune {
			size = 2
		}
		if n < offset && offset < n+size {
			return true
		}
		n += size
		if n >= offset {
			return false
		}
	}
	return false
}
