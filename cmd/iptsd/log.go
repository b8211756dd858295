package main

// Bracket-tagged logging to stderr, matching the teacher's
// fmt.Printf("[bridge] ...") style. The ipts library package itself
// never logs; only this binary does.

import (
	"fmt"
	"os"
)

type logger struct {
	debug bool
}

func (l *logger) infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[iptsd] "+format+"\n", args...)
}

func (l *logger) debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	fmt.Fprintf(os.Stderr, "[iptsd] "+format+"\n", args...)
}

func (l *logger) errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[iptsd] error: "+format+"\n", args...)
}
