// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package log is the leveled logger every xerocole component logs
// through (spec §5, §7): package-level Debug/Info/Warn/Error/Crit
// functions backed by a replaceable io.Writer per level, with the
// sd-daemon numeric prefixes so output composes with systemd's journal
// the same way the upstream project's logger does.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelNote
	levelWarn
	levelErr
	levelCrit
)

var levelName = map[level]string{
	levelDebug: "debug",
	levelInfo:  "info",
	levelNote:  "notice",
	levelWarn:  "warn",
	levelErr:   "err",
	levelCrit:  "crit",
}

var levelPrefix = map[level]string{
	levelDebug: "<7>[DEBUG]    ",
	levelInfo:  "<6>[INFO]     ",
	levelNote:  "<5>[NOTICE]   ",
	levelWarn:  "<4>[WARNING]  ",
	levelErr:   "<3>[ERROR]    ",
	levelCrit:  "<2>[CRITICAL] ",
}

var levelFlags = map[level]int{
	levelDebug: 0,
	levelInfo:  0,
	levelNote:  log.Lshortfile,
	levelWarn:  log.Lshortfile,
	levelErr:   log.Llongfile,
	levelCrit:  log.Llongfile,
}

var (
	writer      = map[level]io.Writer{}
	logger      = map[level]*log.Logger{}
	timeLogger  = map[level]*log.Logger{}
	logDateTime bool
)

func init() {
	for lvl, prefix := range levelPrefix {
		w := io.Writer(os.Stderr)
		writer[lvl] = w
		logger[lvl] = log.New(w, prefix, levelFlags[lvl])
		timeLogger[lvl] = log.New(w, prefix, log.LstdFlags|levelFlags[lvl])
	}
}

// SetLogLevel discards every level below lvl (inclusive ordering
// debug < info < notice < warn < err < crit), falling back to "debug"
// on an unrecognized value.
func SetLogLevel(lvl string) {
	order := []level{levelDebug, levelInfo, levelNote, levelWarn, levelErr, levelCrit}
	idx := -1
	for i, l := range order {
		if levelName[l] == lvl || (lvl == "fatal" && l == levelErr) {
			idx = i
			break
		}
	}
	if idx < 0 {
		fmt.Printf("pkg/log: Flag 'loglevel' has invalid value %#v\npkg/log: Will use default loglevel 'debug'\n", lvl)
		idx = 0
	}
	for i, l := range order {
		if i < idx {
			writer[l] = io.Discard
		}
	}
}

func SetLogDateTime(logdate bool) { logDateTime = logdate }

func output(lvl level, s string) {
	if writer[lvl] == io.Discard {
		return
	}
	if logDateTime {
		timeLogger[lvl].Output(3, s)
	} else {
		logger[lvl].Output(3, s)
	}
}

func Print(v ...interface{}) { Info(v...) }
func Debug(v ...interface{}) { output(levelDebug, fmt.Sprint(v...)) }
func Info(v ...interface{})  { output(levelInfo, fmt.Sprint(v...)) }
func Note(v ...interface{})  { output(levelNote, fmt.Sprint(v...)) }
func Warn(v ...interface{})  { output(levelWarn, fmt.Sprint(v...)) }
func Error(v ...interface{}) { output(levelErr, fmt.Sprint(v...)) }
func Crit(v ...interface{})  { output(levelCrit, fmt.Sprint(v...)) }

// Panic logs then panics, keeping the application from progressing
// further on a state the caller can't safely continue from.
func Panic(v ...interface{}) {
	Error(v...)
	panic("Panic triggered ...")
}

// Fatal logs then exits with status 1.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Printf(format string, v ...interface{}) { Infof(format, v...) }
func Debugf(format string, v ...interface{}) { output(levelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { output(levelInfo, fmt.Sprintf(format, v...)) }
func Notef(format string, v ...interface{})  { output(levelNote, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { output(levelWarn, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { output(levelErr, fmt.Sprintf(format, v...)) }
func Critf(format string, v ...interface{})  { output(levelCrit, fmt.Sprintf(format, v...)) }

func Panicf(format string, v ...interface{}) {
	Errorf(format, v...)
	panic("Panic triggered ...")
}

func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}

// Finfof writes directly to w, bypassing the level gate, for the rare
// caller that already holds a specific writer (e.g. a CLI subcommand
// writing a status line to stdout regardless of log level).
func Finfof(w io.Writer, format string, v ...interface{}) {
	if logDateTime {
		fmt.Fprintf(w, time.Now().String()+levelPrefix[levelInfo]+format+"\n", v...)
	} else {
		fmt.Fprintf(w, levelPrefix[levelInfo]+format+"\n", v...)
	}
}
