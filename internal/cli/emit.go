package cli

import (
	"fmt"
	"io"
	"strings"
)

// emitKeys writes one key=value line per key, in order, to the command's
// stdout. The host parses this output line by line, so every key of a
// command's fixed key set is printed even when its value is empty, and
// embedded newlines in values are flattened to spaces.
func emitKeys(w io.Writer, keys []string, values map[string]string) {
	for _, key := range keys {
		value := strings.ReplaceAll(values[key], "\n", " ")
		fmt.Fprintf(w, "%s=%s\n", key, value)
	}
}
