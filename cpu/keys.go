package cpu

const (
	KEY_COUNT = 16 // Keys on the hexadecimal keypad.
)

// Keys is a snapshot of the keypad, indexed by key 0x0-0xF.
type Keys [KEY_COUNT]bool

// First returns the lowest numbered pressed key.
func (keys *Keys) First() (key int, ok bool) {
	for n, down := range keys {
		if down {
			return n, true
		}
	}
	return
}

// Pressed returns true if the key, masked to 0x0-0xF, is down.
func (keys *Keys) Pressed(key byte) bool {
	return keys[key&0xf]
}
