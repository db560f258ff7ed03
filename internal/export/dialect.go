package export

import (
	"fmt"
	"os"
	"strings"
)

// Dialect describes how a plan is spelled in one shell language
type Dialect struct {
	Name     string
	FileName string
	Header   []string
	Comment  string
	LineEnd  string
	Delete   string
	// ToolSuffix is appended to every media tool line
	ToolSuffix string
	Perm       os.FileMode
	// Quote renders a file name as one literal argument
	Quote func(string) string
	// Escape is applied to every finished line
	Escape func(string) string
	// Manifest renders the lines that create the concat list
	Manifest func(name string, lines []string) []string
}

// POSIX renders process_video.sh
var POSIX = Dialect{
	Name:     "posix",
	FileName: "process_video.sh",
	Header:   []string{"#!/bin/sh", "set -e"},
	Comment:  "#",
	LineEnd:  "\n",
	Delete:   "rm -f",
	Perm:     0755,
	Quote:    posixQuote,
	Escape:   func(s string) string { return s },
	Manifest: func(name string, lines []string) []string {
		out := make([]string, len(lines))
		for i, l := range lines {
			redirect := ">>"
			if i == 0 {
				redirect = ">"
			}
			out[i] = fmt.Sprintf("printf '%%s\\n' %s %s %s", posixQuote(l), redirect, name)
		}
		return out
	},
}

// Batch renders process_video.bat
var Batch = Dialect{
	Name:       "batch",
	FileName:   "process_video.bat",
	Header:     []string{"@echo off"},
	Comment:    "REM",
	LineEnd:    "\r\n",
	Delete:     "del /q",
	ToolSuffix: " || exit /b 1",
	Perm:       0644,
	Quote:      func(s string) string { return `"` + s + `"` },
	Escape:     func(s string) string { return strings.ReplaceAll(s, "%", "%%") },
	Manifest: func(name string, lines []string) []string {
		out := make([]string, 0, len(lines)+2)
		out = append(out, "(")
		for _, l := range lines {
			out = append(out, "echo "+batchEchoEscape(l))
		}
		return append(out, ") > "+name)
	},
}

// Dialects lists every supported dialect
var Dialects = []Dialect{POSIX, Batch}

// ParseDialect accepts "posix", "sh", "batch", "bat" or "all"
func ParseDialect(s string) ([]Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "posix", "sh":
		return []Dialect{POSIX}, nil
	case "batch", "bat":
		return []Dialect{Batch}, nil
	case "", "all":
		return Dialects, nil
	}
	return nil, fmt.Errorf("unknown script dialect %q (expected posix, batch or all)", s)
}

func posixQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}

// batchEchoEscape protects cmd metacharacters in unquoted echo text. The
// parentheses matter because the echo lines sit inside a ( ... ) block.
func batchEchoEscape(s string) string {
	r := strings.NewReplacer("^", "^^", "&", "^&", "|", "^|", "<", "^<", ">", "^>", "(", "^(", ")", "^)")
	return r.Replace(s)
}
