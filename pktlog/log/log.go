// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
//
// Copyright (c) 2009 The Go Authors. All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

// Package log is the process wide logging backend.  Each package which logs
// asks for a btclog.Logger tagged with its subsystem name, all of them write
// through one goroutine to stdout and, once InitLogRotator is called, to a
// rotating log file.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/pkt-cash/pktsign/btcutil/er"
)

// Flags to modify Backend's behavior.
const (
	// Llongfile modifies the logger output to include full path and line number
	// of the logging callsite, e.g. /a/b/c/main.go:123.
	Llongfile uint32 = 1 << iota

	// Lshortfile modifies the logger output to include filename and line number
	// of the logging callsite, e.g. main.go:123.  Overrides Llongfile.
	Lshortfile

	Lcolor

	Llongdate
)

// Level is the level at which a logger is configured.  All messages sent
// to a level which is below the current level are filtered.
type Level = btclog.Level

// Level constants.
const (
	LevelTrace    = btclog.LevelTrace
	LevelDebug    = btclog.LevelDebug
	LevelInfo     = btclog.LevelInfo
	LevelWarn     = btclog.LevelWarn
	LevelError    = btclog.LevelError
	LevelCritical = btclog.LevelCritical
	LevelOff      = btclog.LevelOff
)

// LevelFromString returns a level based on the input string s.  If the input
// can't be interpreted as a valid log level, the info level and false is
// returned.
func LevelFromString(s string) (Level, bool) {
	return btclog.LevelFromString(strings.ToLower(s))
}

// SupportedSubsystems returns a sorted slice of the tags of every logger
// handed out by NewSubLogger.
func SupportedSubsystems() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	subs := make([]string, 0, len(b.subsystems))
	for tag := range b.subsystems {
		subs = append(subs, tag)
	}
	sort.Strings(subs)
	return subs
}

// SetLogLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
//
// The string is either a single level applied to every subsystem, or a comma
// separated list of SUBSYSTEM=level pairs, optionally with one bare level
// which becomes the default.
func SetLogLevels(debugLevel string) er.R {
	glvl := Level(0)
	hasGlobal := false
	m := make(map[string]Level)
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		logLevelPair = strings.TrimSpace(logLevelPair)
		if !strings.Contains(logLevelPair, "=") {
			lvl, ok := LevelFromString(logLevelPair)
			if !ok {
				return er.Errorf("The specified debug level [%v] is invalid", logLevelPair)
			}
			if hasGlobal {
				return er.Errorf("The specified debug level [%v] has more "+
					"than one default level", debugLevel)
			}
			glvl, hasGlobal = lvl, true
			continue
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		if len(fields) != 2 {
			str := "The specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return er.Errorf(str, logLevelPair)
		}
		subsysID, logLevel := fields[0], fields[1]

		if !isSubsystem(subsysID) {
			return er.Errorf("The specified subsystem [%v] is invalid -- "+
				"supported subsystems %v", subsysID, SupportedSubsystems())
		}
		lvl, ok := LevelFromString(logLevel)
		if !ok {
			return er.Errorf("The specified debug level [%v] is invalid", logLevel)
		}
		m[subsysID] = lvl
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if hasGlobal {
		b.lvl = glvl
		// A bare level resets every subsystem which was not named.
		b.lmap = m
		return nil
	}
	for k, v := range m {
		b.lmap[k] = v
	}
	return nil
}

func isSubsystem(tag string) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	_, ok := b.subsystems[tag]
	return ok
}

const defaultFlags = Lshortfile | Lcolor
const defaultLevel = LevelInfo

// newBackend creates a logger backend from a Writer.
func newBackend(w io.Writer) *backend {
	flags := uint32(0)
	hasFlags := false
	for _, f := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch f {
		case "none":
		case "longfile":
			flags |= Llongfile
		case "shortfile":
			flags |= Lshortfile
		case "color":
			flags |= Lcolor
		case "longdate":
			flags |= Llongdate
		default:
			continue
		}
		hasFlags = true
	}
	if !hasFlags {
		flags = defaultFlags
	}

	b := &backend{
		flag:       flags,
		ch:         make(chan *[]byte, 1024),
		done:       make(chan struct{}),
		lvl:        defaultLevel,
		lmap:       make(map[string]Level),
		subsystems: make(map[string]struct{}),
		writers:    []io.Writer{w},
	}
	go b.run()
	return b
}

func (b *backend) run() {
	defer close(b.done)
	for l := range b.ch {
		b.wlock.Lock()
		for _, w := range b.writers {
			w.Write(*l)
		}
		b.wlock.Unlock()
		recycleBuffer(l)
	}
}

// bufferPool defines a concurrent safe free list of byte slices used to provide
// temporary buffers for formatting log messages prior to outputting them.
var bufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 120)
		return &b // pointer to slice to avoid boxing alloc
	},
}

// buffer returns a byte slice from the free list.  A new buffer is allocated if
// there are not any available on the free list.  The returned byte slice should
// be returned to the fee list by using the recycleBuffer function when the
// caller is done with it.
func buffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// recycleBuffer puts the provided byte slice, which should have been obtain via
// the buffer function, back on the free list.
func recycleBuffer(b *[]byte) {
	*b = (*b)[:0]
	bufferPool.Put(b)
}

// From stdlib log package.
// Cheap integer to fixed-width decimal ASCII.  Give a negative width to avoid
// zero-padding.
func itoa(buf *[]byte, i int, wid int) {
	// Assemble decimal in reverse order.
	var b [20]byte
	bp := len(b) - 1
	for i >= 10 || wid > 1 {
		wid--
		q := i / 10
		b[bp] = byte('0' + i - q*10)
		bp--
		i = q
	}
	// i < 10
	b[bp] = byte('0' + i)
	*buf = append(*buf, b[bp:]...)
}

const (
	reset  = "\x1b[0m"
	bright = "\x1b[1m"
	dim    = "\x1b[2m"

	fgBlack  = "\x1b[30m"
	fgRed    = "\x1b[31m"
	fgYellow = "\x1b[33m"
	fgCyan   = "\x1b[36m"
	fgWhite  = "\x1b[37m"

	bgRed = "\x1b[41m"

	colorDbg  = dim + fgWhite
	colorWarn = bright + fgYellow
	colorErr  = bright + fgRed
	colorCrit = bright + fgBlack + bgRed
)

// Txid highlights a transaction id.
func Txid(str string) string {
	return fgCyan + str + reset
}

// Appends a header in the default format 'YYYY-MM-DD hh:mm:ss.sss [LVL] TAG: '.
// If either of the Lshortfile or Llongfile flags are specified, the file named
// and line number are included after the tag and before the final colon.
func formatHeader(flags uint32, buf *[]byte, t time.Time, lvl Level, tag, file string, line int) bool {

	hasColor := false
	if flags&Lcolor == Lcolor {
		hasColor = true
		switch lvl {
		case LevelDebug:
			*buf = append(*buf, colorDbg...)
		case LevelWarn:
			*buf = append(*buf, colorWarn...)
		case LevelError:
			*buf = append(*buf, colorErr...)
		case LevelCritical:
			*buf = append(*buf, colorCrit...)
		default:
			hasColor = false
		}
	}

	if flags&Llongdate == Llongdate {
		year, month, day := t.Date()
		hour, min, sec := t.Clock()
		ms := t.Nanosecond() / 1e6

		itoa(buf, year, 4)
		*buf = append(*buf, '-')
		itoa(buf, int(month), 2)
		*buf = append(*buf, '-')
		itoa(buf, day, 2)
		*buf = append(*buf, ' ')
		itoa(buf, hour, 2)
		*buf = append(*buf, ':')
		itoa(buf, min, 2)
		*buf = append(*buf, ':')
		itoa(buf, sec, 2)
		*buf = append(*buf, '.')
		itoa(buf, ms, 3)
	} else {
		itoa(buf, int(t.Unix()), -1)
	}
	*buf = append(*buf, " ["...)
	*buf = append(*buf, lvl.String()...)
	*buf = append(*buf, "] "...)
	*buf = append(*buf, tag...)
	if flags&(Lshortfile|Llongfile) != 0 {
		*buf = append(*buf, ' ')
		*buf = append(*buf, file...)
		*buf = append(*buf, ':')
		itoa(buf, line, -1)
	}
	*buf = append(*buf, ": "...)

	return hasColor
}

// calldepth is the call depth of the callsite function relative to the
// caller of the subsystem logger.  It is used to recover the filename and line
// number of the logging call if either the short or long file flags are
// specified.
const calldepth = 3

// callsite returns the file name and line number of the callsite to the
// subsystem logger.
func callsite(flag uint32) (string, int) {
	_, file, line, ok := runtime.Caller(calldepth)
	if !ok {
		return "???", 0
	}
	if flag&Lshortfile != 0 {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if os.IsPathSeparator(file[i]) {
				short = file[i+1:]
				break
			}
		}
		file = short
	}
	return file, line
}

func (b *backend) write(buf *[]byte) {
	b.closeLock.RLock()
	defer b.closeLock.RUnlock()
	if b.closed {
		recycleBuffer(buf)
		return
	}
	select {
	case b.ch <- buf:
		// ok
	default:
		// failed, recycle the buffer ourselves
		recycleBuffer(buf)
	}
}

// backend is a logging backend.  Subsystems created from the backend write to
// the backend's Writers.  backend provides atomic writes to the Writers from
// all subsystems.
type backend struct {
	ch   chan *[]byte
	done chan struct{}
	flag uint32

	lock       sync.RWMutex
	lvl        Level
	lmap       map[string]Level
	subsystems map[string]struct{}

	wlock   sync.Mutex
	writers []io.Writer
	rotator *rotator.Rotator

	closeLock sync.RWMutex
	closed    bool
}

var b *backend

func init() {
	b = newBackend(os.Stdout)
}

// InitLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory.  It must be called before the
// package-global log rotater variables are used.
func InitLogRotator(logFile string, thresholdKB int64, maxRolls int) er.R {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if errr := os.MkdirAll(logDir, 0700); errr != nil {
			return er.Errorf("failed to create log directory: %v", errr)
		}
	}
	r, errr := rotator.New(logFile, thresholdKB, false, maxRolls)
	if errr != nil {
		return er.Errorf("failed to create file rotator: %v", errr)
	}

	b.wlock.Lock()
	defer b.wlock.Unlock()
	if b.rotator != nil {
		b.rotator.Close()
		b.writers = b.writers[:1]
	}
	b.rotator = r
	b.writers = append(b.writers, r)
	return nil
}

// Close drains pending log lines and closes the log rotator, if any.  Lines
// logged after Close are dropped.
func Close() {
	b.closeLock.Lock()
	if b.closed {
		b.closeLock.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.closeLock.Unlock()

	<-b.done
	b.wlock.Lock()
	defer b.wlock.Unlock()
	if b.rotator != nil {
		b.rotator.Close()
		b.rotator = nil
	}
}

// subLogger is a btclog.Logger which writes to the package backend under a
// subsystem tag.
type subLogger struct {
	tag string
}

// NewSubLogger returns a logger for the subsystem tag.  The subsystem
// becomes a valid target for SetLogLevels.
func NewSubLogger(tag string) btclog.Logger {
	b.lock.Lock()
	b.subsystems[tag] = struct{}{}
	b.lock.Unlock()
	return &subLogger{tag: tag}
}

// Level returns the level of the subsystem, falling back to the default.
func (l *subLogger) Level() btclog.Level {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if lvl, ok := b.lmap[l.tag]; ok {
		return lvl
	}
	return b.lvl
}

// SetLevel changes the level of this subsystem only.
func (l *subLogger) SetLevel(level btclog.Level) {
	b.lock.Lock()
	b.lmap[l.tag] = level
	b.lock.Unlock()
}

// doLog outputs a log message to the writer associated with the backend after
// creating a prefix for the given level and tag according to the formatHeader
// function and formatting the provided arguments according to the given format
// specifier.
func (l *subLogger) doLog(lvl Level, format string, args ...interface{}) {
	if lvl < l.Level() {
		return
	}
	file, line := callsite(b.flag)

	t := time.Now()
	bytebuf := buffer()
	hasColor := formatHeader(b.flag, bytebuf, t, lvl, l.tag, file, line)
	buf := bytes.NewBuffer(*bytebuf)
	if format == "" {
		fmt.Fprintln(buf, args...)
	} else {
		fmt.Fprintf(buf, format, args...)
	}
	*bytebuf = bytes.TrimRight(buf.Bytes(), "\n")
	if hasColor {
		*bytebuf = append(*bytebuf, reset...)
	}
	*bytebuf = append(*bytebuf, '\n')

	b.write(bytebuf)
}

func (l *subLogger) Trace(args ...interface{}) {
	l.doLog(LevelTrace, "", args...)
}

func (l *subLogger) Tracef(format string, args ...interface{}) {
	l.doLog(LevelTrace, format, args...)
}

func (l *subLogger) Debug(args ...interface{}) {
	l.doLog(LevelDebug, "", args...)
}

func (l *subLogger) Debugf(format string, args ...interface{}) {
	l.doLog(LevelDebug, format, args...)
}

func (l *subLogger) Info(args ...interface{}) {
	l.doLog(LevelInfo, "", args...)
}

func (l *subLogger) Infof(format string, args ...interface{}) {
	l.doLog(LevelInfo, format, args...)
}

func (l *subLogger) Warn(args ...interface{}) {
	l.doLog(LevelWarn, "", args...)
}

func (l *subLogger) Warnf(format string, args ...interface{}) {
	l.doLog(LevelWarn, format, args...)
}

func (l *subLogger) Error(args ...interface{}) {
	l.doLog(LevelError, "", args...)
}

func (l *subLogger) Errorf(format string, args ...interface{}) {
	l.doLog(LevelError, format, args...)
}

func (l *subLogger) Critical(args ...interface{}) {
	l.doLog(LevelCritical, "", args...)
}

func (l *subLogger) Criticalf(format string, args ...interface{}) {
	l.doLog(LevelCritical, format, args...)
}

// logClosure is used to provide a closure over expensive logging operations so
// don't have to be performed when the logging level doesn't warrant it.
type logClosure func() string

// String invokes the underlying function and returns the result.
func (c logClosure) String() string {
	return c()
}

// C returns a new closure over a function that returns a string
// which itself provides a Stringer interface so that it can be used with the
// logging system.
func C(c func() string) fmt.Stringer {
	return logClosure(c)
}
