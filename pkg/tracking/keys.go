package tracking

import "fmt"

// Key is a navigation command for paced reading.
type Key string

const (
	KeyNext     Key = "next"
	KeyPrev     Key = "prev"
	KeyNextLine Key = "next_line"
	KeyPrevLine Key = "prev_line"
	KeyExit     Key = "exit"
)

// ParseKey accepts command names and browser key names.
func ParseKey(s string) (Key, error) {
	switch s {
	case "next", "ArrowRight":
		return KeyNext, nil
	case "prev", "ArrowLeft":
		return KeyPrev, nil
	case "next_line", "ArrowDown":
		return KeyNextLine, nil
	case "prev_line", "ArrowUp":
		return KeyPrevLine, nil
	case "exit", "Escape":
		return KeyExit, nil
	}
	return "", fmt.Errorf("tracking: unknown key %q", s)
}
