// Copyright (C) 2023 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util holds small filesystem helpers shared by the tailer's
// discovery and restat logic.
package util

import (
	"errors"
	"os"

	"github.com/pingw33n/xerocole/pkg/log"
)

// CheckFileExists reports false only when os.Stat says filePath does not
// exist; any other stat error (e.g. permission denied) reports true.
func CheckFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

// GetFilesize stats filePath and returns its size, or 0 and a logged
// warning if the stat fails (the file vanished between glob expansion
// and this call, a normal race under active log rotation).
func GetFilesize(filePath string) int64 {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		log.Warnf("util: stat %s: %v", filePath, err)
		return 0
	}
	return fileInfo.Size()
}

// GetFilecount returns the number of directory entries under path, or 0
// and a logged warning if the directory can't be read.
func GetFilecount(path string) int {
	files, err := os.ReadDir(path)
	if err != nil {
		log.Warnf("util: readdir %s: %v", path, err)
		return 0
	}
	return len(files)
}
