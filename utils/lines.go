package utils

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var ErrLineTooLong = errors.New("line too long")

// ReadLines calls onLine with every line of reader, without its line ending. A line that doesn't fit in maxLen
// bytes is skipped through to the next newline and its first maxLen bytes are passed to onTooLong instead.
// Both slices are only valid during the call. It returns nil at EOF.
func ReadLines(reader io.Reader, maxLen int, onLine func(line []byte), onTooLong func(head []byte)) error {
	br := bufio.NewReaderSize(reader, maxLen)
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			onTooLong(line)
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = br.ReadSlice('\n')
			}
			if err != nil {
				return eofIsNil(err)
			}
			continue
		}

		if len(line) > 0 {
			onLine(bytes.TrimRight(line, "\r\n"))
		}
		if err != nil {
			return eofIsNil(err)
		}
	}
}

func eofIsNil(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
