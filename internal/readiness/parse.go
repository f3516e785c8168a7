package readiness

import (
	"strconv"
	"strings"
)

// Prefix is the token that starts a readiness line.
const Prefix = "PORT:"

// Parse reports whether line is a readiness line and, if so, the port it
// carries. The remainder after Prefix must be a base-10 unsigned integer that
// fits in 16 bits, with nothing before or after it. Anything else is not a
// signal and yields ok == false.
func Parse(line string) (port uint16, ok bool) {
	rest, found := strings.CutPrefix(line, Prefix)
	if !found {
		return 0, false
	}
	// ParseUint with base 10 rejects signs, spaces and empty input.
	n, err := strconv.ParseUint(rest, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}
