package vip8

import "unicode"

// KeyboardLayout lists, row by row, the host keys that sit where the
// COSMAC VIP hex keypad keys are:
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
type KeyboardLayout [4][4]rune

var keypadLayout = [4][4]byte{
	{0x1, 0x2, 0x3, 0xC},
	{0x4, 0x5, 0x6, 0xD},
	{0x7, 0x8, 0x9, 0xE},
	{0xA, 0x0, 0xB, 0xF},
}

// DefaultKeyboardLayout uses the left block of a QWERTY keyboard
var DefaultKeyboardLayout = KeyboardLayout{
	{'1', '2', '3', '4'},
	{'q', 'w', 'e', 'r'},
	{'a', 's', 'd', 'f'},
	{'z', 'x', 'c', 'v'},
}

// LookupMap maps every host key of the layout, lower case, to its keypad key
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := make(map[rune]byte, 16)
	for row := range layout {
		for col, r := range layout[row] {
			m[unicode.ToLower(r)] = keypadLayout[row][col]
		}
	}

	return m
}
