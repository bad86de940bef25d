package backend

import (
	"strings"

	"github.com/samcharles93/qconv/internal/dotprod"
)

// Available returns a comma-separated list of the backends usable on this
// machine, narrowest first. Every backend is portable Go, so all of them run;
// the list marks the detected one.
func Available() string {
	entries := make([]string, 0, len(dotprod.Kinds))
	det := Detect()
	for _, k := range dotprod.Kinds {
		name := k.String()
		if k == det {
			name += "*"
		}
		entries = append(entries, name)
	}
	return strings.Join(entries, ",")
}

// Has reports whether name is a known backend.
func Has(name string) bool {
	_, err := Resolve(name)
	return err == nil
}
