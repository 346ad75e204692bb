package provider

import (
	"io"
	"strings"
)

// decodeEventStream reads newline-delimited `data:` frames from r,
// handing each payload to onData. Frames split across read boundaries
// are reassembled by carrying the trailing partial line as a remainder.
// The literal [DONE] sentinel ends the stream without reaching onData.
// onData returning false stops decoding early.
func decodeEventStream(r io.Reader, onData func(payload string) bool) error {
	buf := make([]byte, 4096)
	remainder := ""
	done := false

	for !done {
		n, readErr := r.Read(buf)
		if n > 0 {
			chunk := remainder + string(buf[:n])
			remainder = ""
			lines := splitLines(chunk)
			for i, line := range lines {
				if i == len(lines)-1 && readErr == nil {
					remainder = line
					continue
				}
				line = strings.TrimSpace(line)
				if !strings.HasPrefix(line, "data:") {
					continue
				}
				data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				if data == "" {
					continue
				}
				if data == "[DONE]" {
					done = true
					break
				}
				if !onData(data) {
					done = true
					break
				}
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
