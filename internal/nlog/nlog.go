// Package nlog is the module's own buffered, severity-leveled logger.
//
// It mirrors the shape of the teacher's cmn/nlog: callers log through
// package-level Info/Warning/Error funcs, a warning or error is also
// mirrored into the lower-severity streams, and everything is buffered
// until Flush writes it to an underlying io.Writer. Unlike the teacher,
// rotation is left to the caller's io.Writer (e.g. lumberjack-style
// writers) since this module does not own a daemon's on-disk log layout.
package nlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

const sevChar = "IWE"

type stream struct {
	mu  sync.Mutex
	buf bytes.Buffer
	out io.Writer
	sev severity
}

var (
	streams = [3]*stream{
		{out: os.Stdout, sev: sevInfo},
		{out: os.Stdout, sev: sevWarn},
		{out: os.Stderr, sev: sevErr},
	}
	toStderr     bool
	alsoToStderr bool
	depthSkip    = 3
)

// SetOutput redirects the info/warn stream and the error stream. Tests and
// daemons that want rotation or multi-writer fan-out wrap `w` themselves.
func SetOutput(infoW, errW io.Writer) {
	streams[sevInfo].out = infoW
	streams[sevWarn].out = infoW
	streams[sevErr].out = errW
}

// ToStderr forces every severity to also go to os.Stderr, handy for tests
// and for `cmd/delegatedemo`.
func ToStderr(also bool) { alsoToStderr = also }

func Infof(format string, args ...any)    { log(sevInfo, format, args...) }
func Infoln(args ...any)                  { logln(sevInfo, args...) }
func Warningf(format string, args ...any) { log(sevWarn, format, args...) }
func Warningln(args ...any)               { logln(sevWarn, args...) }
func Errorf(format string, args ...any)   { log(sevErr, format, args...) }
func Errorln(args ...any)                 { logln(sevErr, args...) }

func log(sev severity, format string, args ...any) {
	write(sev, fmt.Sprintf(format, args...))
}

func logln(sev severity, args ...any) {
	write(sev, fmt.Sprintln(args...))
}

func write(sev severity, msg string) {
	hdr := header(sev)
	line := hdr + msg
	if !hasSuffixNL(line) {
		line += "\n"
	}

	s := streams[sev]
	s.mu.Lock()
	s.buf.WriteString(line)
	s.mu.Unlock()

	// a warning is mirrored into the info stream, an error into both
	// info and warn, matching the teacher's cascading-severity write.
	if sev >= sevWarn {
		si := streams[sevInfo]
		si.mu.Lock()
		si.buf.WriteString(line)
		si.mu.Unlock()
	}
	if sev == sevErr {
		sw := streams[sevWarn]
		sw.mu.Lock()
		sw.buf.WriteString(line)
		sw.mu.Unlock()
	}
	if alsoToStderr || toStderr {
		os.Stderr.WriteString(line)
	}
}

func hasSuffixNL(s string) bool { return len(s) > 0 && s[len(s)-1] == '\n' }

func header(sev severity) string {
	_, fn, ln, ok := runtime.Caller(depthSkip)
	now := time.Now().Format("15:04:05.000000")
	if !ok {
		return fmt.Sprintf("%c %s ", sevChar[sev], now)
	}
	if idx := indexLastSlash(fn); idx >= 0 {
		fn = fn[idx+1:]
	}
	return fmt.Sprintf("%c %s %s:%s ", sevChar[sev], now, fn, strconv.Itoa(ln))
}

func indexLastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == filepath.Separator || s[i] == '/' {
			return i
		}
	}
	return -1
}

// Flush writes out every buffered stream. Call periodically (e.g. from
// hk) and once more before process exit.
func Flush() {
	for _, s := range streams {
		s.mu.Lock()
		if s.buf.Len() > 0 {
			s.out.Write(s.buf.Bytes())
			s.buf.Reset()
		}
		s.mu.Unlock()
	}
}
