//go:build darwin

package darwin

import (
	"fmt"
	"strings"
)

// macOS virtual key codes from Carbon Events.h.
var keyCodeMap = map[string]uint16{
	"a": 0x00, "b": 0x0B, "c": 0x08, "d": 0x02, "e": 0x0E, "f": 0x03,
	"g": 0x05, "h": 0x04, "i": 0x22, "j": 0x26, "k": 0x28, "l": 0x25,
	"m": 0x2E, "n": 0x2D, "o": 0x1F, "p": 0x23, "q": 0x0C, "r": 0x0F,
	"s": 0x01, "t": 0x11, "u": 0x20, "v": 0x09, "w": 0x0D, "x": 0x07,
	"y": 0x10, "z": 0x06,

	"0": 0x1D, "1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15,
	"5": 0x17, "6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19,

	"enter": 0x24, "return": 0x24, "tab": 0x30, "space": 0x31,
	"delete": 0x33, "backspace": 0x33, "forwarddelete": 0x75,
	"escape": 0x35, "esc": 0x35,

	"left": 0x7B, "right": 0x7C, "down": 0x7D, "up": 0x7E,
	"home": 0x73, "end": 0x77, "pageup": 0x74, "pagedown": 0x79,

	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60,
	"f6": 0x61, "f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D,
	"f11": 0x67, "f12": 0x6F,

	"-": 0x1B, "=": 0x18, "[": 0x21, "]": 0x1E, "\\": 0x2A,
	";": 0x29, "'": 0x27, ",": 0x2B, ".": 0x2F, "/": 0x2C, "`": 0x32,
}

// CGEventFlags modifier masks.
const (
	flagShift   = 0x00020000
	flagControl = 0x00040000
	flagOption  = 0x00080000
	flagCommand = 0x00100000
)

// parseKeyCombo splits a combo like ["cmd","shift","t"] into a key code plus
// modifier flags. Exactly one non-modifier key is required.
func parseKeyCombo(keys []string) (uint16, uint64, error) {
	var modifiers uint64
	var keyCode uint16
	haveKey := false

	for _, k := range keys {
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "cmd", "command", "meta":
			modifiers |= flagCommand
		case "ctrl", "control":
			modifiers |= flagControl
		case "alt", "opt", "option":
			modifiers |= flagOption
		case "shift":
			modifiers |= flagShift
		default:
			code, ok := keyCodeMap[strings.ToLower(strings.TrimSpace(k))]
			if !ok {
				return 0, 0, fmt.Errorf("unknown key: %q", k)
			}
			if haveKey {
				return 0, 0, fmt.Errorf("key combo has more than one non-modifier key")
			}
			keyCode = code
			haveKey = true
		}
	}

	if !haveKey {
		return 0, 0, fmt.Errorf("key combo has no non-modifier key")
	}
	return keyCode, modifiers, nil
}
