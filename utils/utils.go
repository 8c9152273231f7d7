package utils

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

var ormSourceDir string

func init() {
	_, file, _, _ := runtime.Caller(0)
	// compatible solution to get source directory with various operating systems
	ormSourceDir = sourceDir(file)
}

func sourceDir(file string) string {
	dir := filepath.Dir(filepath.Dir(file))
	return filepath.ToSlash(dir) + "/"
}

// FileWithLineNum return the file name and line number of the first caller
// outside this module.
func FileWithLineNum() string {
	for i := 2; i < 15; i++ {
		_, file, line, ok := runtime.Caller(i)
		if ok && (!strings.HasPrefix(file, ormSourceDir) || strings.HasSuffix(file, "_test.go")) {
			return file + ":" + strconv.FormatInt(int64(line), 10)
		}
	}

	return ""
}

// CallerFrame returns the first caller frame outside this module.
func CallerFrame() (frame runtime.Frame) {
	pcs := make([]uintptr, 13)
	length := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:length])

	for more := true; more; {
		frame, more = frames.Next()
		if !strings.HasPrefix(frame.File, ormSourceDir) || strings.HasSuffix(frame.File, "_test.go") {
			return frame
		}
	}

	return frame
}
