package keyboard

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// The printable half of the US scancode-set-1 layout lives in an embedded
// CSV table; control and function keys are handled in code.
//
//go:embed keymap.csv
var keymapRawCSV string

type keymapRow struct {
	Scancode string `csv:"scancode"`
	Normal   string `csv:"normal"`
	Shifted  string `csv:"shifted"`
}

type keyMapping struct {
	normal  rune
	shifted rune
}

func (m keyMapping) isLetter() bool {
	return m.normal >= 'a' && m.normal <= 'z'
}

var keymap = make(map[byte]keyMapping)

// Named keys reached through the 0xE0 extended prefix.
var extendedKeyNames = map[byte]string{
	0x47: "Home",
	0x48: "Up",
	0x4B: "Left",
	0x4D: "Right",
	0x4F: "End",
	0x50: "Down",
	0x53: "Delete",
}

// Function keys F1-F10.
var functionKeyNames = map[byte]string{
	0x3B: "F1", 0x3C: "F2", 0x3D: "F3", 0x3E: "F4", 0x3F: "F5",
	0x40: "F6", 0x41: "F7", 0x42: "F8", 0x43: "F9", 0x44: "F10",
}

func init() {
	reader := strings.NewReader(keymapRawCSV)
	err := gocsv.UnmarshalToCallback(
		reader,
		func(row keymapRow) error {
			code, err := strconv.ParseUint(row.Scancode, 0, 8)
			if err != nil {
				return fmt.Errorf("bad scancode %q: %w", row.Scancode, err)
			}
			if _, exists := keymap[byte(code)]; exists {
				return fmt.Errorf("duplicate keymap row for scancode %s", row.Scancode)
			}
			if len(row.Normal) != 1 || len(row.Shifted) != 1 {
				return fmt.Errorf("keymap row %s must map single characters", row.Scancode)
			}
			keymap[byte(code)] = keyMapping{
				normal:  rune(row.Normal[0]),
				shifted: rune(row.Shifted[0]),
			}
			return nil
		},
	)
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// EncodeRune maps a character back to the make/break scancode sequence that
// produces it, including the shift press where one is needed. The harness
// uses this to synthesize interrupts from host input.
func EncodeRune(r rune) ([]byte, bool) {
	switch r {
	case '\n', '\r':
		return []byte{0x1C, 0x9C}, true
	case '\t':
		return []byte{0x0F, 0x8F}, true
	}

	for code, mapping := range keymap {
		if mapping.normal == r {
			return []byte{code, code | 0x80}, true
		}
		if mapping.shifted == r {
			return []byte{0x2A, code, code | 0x80, 0xAA}, true
		}
	}
	return nil, false
}
