package engine

import "strings"

// unsafePatterns is a small deny-list applied to ad-hoc code before it
// reaches an execution environment. Defense-in-depth only: the execution
// environment, not this list, is the isolation boundary.
var unsafePatterns = []string{
	"import os",
	"import sys",
	"import subprocess",
	"import shutil",
	"import socket",
	"from os ",
	"from subprocess ",
	"__import__(",
	"eval(",
	"exec(",
	"open('/",
	`open("/`,
}

// unsafeMatch returns the first deny-listed substring found in code, or
// the empty string.
func unsafeMatch(code string) string {
	for _, pattern := range unsafePatterns {
		if strings.Contains(code, pattern) {
			return pattern
		}
	}
	return ""
}
