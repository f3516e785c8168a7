package readiness

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// MaxLineLength is the longest line ReadLines passes on. Longer lines are
// skipped whole; they cannot be readiness lines.
const MaxLineLength = 64 * 1024

// ReadLines calls fn for every line read from r, without the trailing "\n"
// or "\r\n". A final line without a newline is passed on too. Lines longer
// than MaxLineLength are skipped, and reading continues with the next line.
//
// ReadLines returns nil at end of stream and the read error otherwise.
func ReadLines(r io.Reader, fn func(line string)) error {
	br := bufio.NewReaderSize(r, MaxLineLength)
	for {
		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = br.ReadSlice('\n')
			}
			if err != nil {
				return endOfStream(err)
			}
			continue
		}
		if len(chunk) > 0 {
			line := strings.TrimSuffix(string(chunk), "\n")
			fn(strings.TrimSuffix(line, "\r"))
		}
		if err != nil {
			return endOfStream(err)
		}
	}
}

func endOfStream(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
