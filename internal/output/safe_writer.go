package output

import "io"

// SafeTerminalWriter sanitizes all bytes written to it. It wraps writers
// that receive text we do not control, such as watch-mode event lines that
// embed file names.
type SafeTerminalWriter struct {
	W io.Writer
}

func (w SafeTerminalWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := io.WriteString(w.W, SanitizeTerminal(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func NewSafeTerminalWriter(w io.Writer) io.Writer {
	return SafeTerminalWriter{W: w}
}
