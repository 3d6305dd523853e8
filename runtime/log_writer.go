package runtime

import "log/slog"

// engineLogWriter is a custom io.Writer that redirects the engine process's
// standard output (stdout/stderr) to the host application's slog.Logger, so
// engine output stays attributable in the host log stream.
type engineLogWriter struct {
	logger  *slog.Logger
	stream  string
	isError bool
}

// Write implements the io.Writer interface. It captures the bytes from the
// engine process and logs them with the appropriate severity level.
func (w *engineLogWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	msg := string(p)

	if w.isError {
		w.logger.Error(msg, "engine", w.stream)
	} else {
		w.logger.Info(msg, "engine", w.stream)
	}

	return len(p), nil
}
