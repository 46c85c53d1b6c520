package detailedtrace

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrMalformedBacktrace is returned when a backtrace line does not match
// the <file>:<line>:in '<function>' form.
var ErrMalformedBacktrace = errors.New("malformed backtrace line")

var backtraceLinePattern = regexp.MustCompile("^(.+):(\\d+):in [`'](.*)'$")

// BacktraceFrame is one parsed stack frame
type BacktraceFrame struct {
	File     string `json:"file"`
	Line     string `json:"line"`
	Function string `json:"function"`
}

// ParseBacktrace parses raw stack lines. Parsing is all-or-nothing: if any
// line is malformed no frames are returned.
func ParseBacktrace(lines []string) ([]BacktraceFrame, error) {
	frames := make([]BacktraceFrame, 0, len(lines))
	for _, line := range lines {
		m := backtraceLinePattern.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedBacktrace, line)
		}
		frames = append(frames, BacktraceFrame{
			File:     m[1],
			Line:     m[2],
			Function: m[3],
		})
	}
	return frames, nil
}
