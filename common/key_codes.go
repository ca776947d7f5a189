package common

// Key is a virtual key code. Values match GLFW key codes, which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeySpace Key = 32 // Spacebar (ASCII)

	Key0 Key = 48 // 0 key (ASCII)
	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52
	Key5 Key = 53
	Key6 Key = 54
	Key7 Key = 55
	Key8 Key = 56
	Key9 Key = 57

	KeyA Key = 65 // A key (ASCII)
	KeyF Key = 70
	KeyP Key = 80
	KeyR Key = 82

	KeyEsc       Key = 256 // Escape key (GLFW)
	KeyEnter     Key = 257
	KeyTab       Key = 258
	KeyBackspace Key = 259
	KeyRight     Key = 262
	KeyLeft      Key = 263
	KeyDown      Key = 264
	KeyUp        Key = 265
)

// Digit reports the numeric value of a number-row key.
//
// Returns:
//   - int: the digit 0-9
//   - bool: false if k is not a number-row key
func (k Key) Digit() (int, bool) {
	if k < Key0 || k > Key9 {
		return 0, false
	}
	return int(k - Key0), true
}
