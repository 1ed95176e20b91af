package hotkey

import (
	"fmt"
	"strings"
)

var aliases = map[string]string{
	"ESC":    "ESCAPE",
	"RETURN": "ENTER",
	"SPC":    "SPACE",
}

// Normalize maps a user-supplied key name to its canonical spelling
// ("f9" -> "F9", "esc" -> "ESCAPE").
func Normalize(name string) string {
	k := strings.ToUpper(strings.TrimSpace(name))
	if a, ok := aliases[k]; ok {
		return a
	}
	return k
}

// Valid reports whether name refers to a key this package can watch.
func Valid(name string) bool {
	_, ok := keyCodes[Normalize(name)]
	return ok
}

func checkKeys(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		n := Normalize(k)
		if _, ok := keyCodes[n]; !ok {
			return nil, fmt.Errorf("unsupported key %q", k)
		}
		if seen[n] {
			return nil, fmt.Errorf("key %q registered twice", n)
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}
