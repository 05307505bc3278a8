// Package buildfile stands in for the external build-file reader spec.md
// treats as an out-of-scope collaborator (spec §1): "the on-disk build-file
// reader and its expression/variable substitution layer ... supplies parsed
// BuildFileNode trees and a field-extraction facade". Because no such reader
// is actually supplied to this repo, this package provides a minimal,
// concrete one so the generator is runnable end to end: a small declarative,
// line-oriented format, one entry per build target, deliberately free of any
// expression language or variable substitution (that richer layer is exactly
// what the spec keeps external). Nothing in internal/node, internal/parse or
// internal/generate depends on the file format chosen here — they only see
// the node.BuildEntry facade.
package buildfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Entry is a single declared build target: a type, a name, and a bag of
// fields. It implements node.BuildEntry without importing the node package,
// to keep this package a leaf.
type Entry struct {
	kind   string
	name   string
	fields map[string][]string
}

// Type returns the entry's declared kind, e.g. "cc_library".
func (e *Entry) Type() string { return e.kind }

// Name returns the entry's local name within its build file.
func (e *Entry) Name() string { return e.name }

// Has reports whether the field was present at all (even if empty).
func (e *Entry) Has(field string) bool {
	_, present := e.fields[field]
	return present
}

// String returns the first (or only) value of a scalar field, or "" if absent.
func (e *Entry) String(field string) string {
	vs := e.fields[field]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// StringList returns every value declared for a repeatable field, or nil.
func (e *Entry) StringList(field string) []string {
	return e.fields[field]
}

// Bool parses the scalar field as a boolean ("true"/"false"/"1"/"0"), false if absent or unparseable.
func (e *Entry) Bool(field string) bool {
	b, _ := strconv.ParseBool(e.String(field))
	return b
}

// StringMap parses a "key=value" repeatable field into a map, e.g. an env block.
func (e *Entry) StringMap(field string) map[string]string {
	out := map[string]string{}
	for _, kv := range e.fields[field] {
		if idx := strings.IndexByte(kv, '='); idx != -1 {
			out[kv[:idx]] = kv[idx+1:]
		}
	}
	return out
}

// File is a parsed build file: an ordered list of entries plus the name the
// entries were loaded from (used in diagnostics).
type File struct {
	Name    string
	Entries []*Entry
}

// Entry returns the named entry, or nil if this file doesn't declare it.
func (f *File) Entry(name string) *Entry {
	for _, e := range f.Entries {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// Parse reads a build file in repobuild's minimal declarative format:
//
//	cc_library(mylib) {
//	    srcs = a.cc
//	    srcs = b.cc
//	    deps = :other
//	}
//
// Blank lines and lines starting with '#' are ignored. A repeated key
// accumulates into a list field; StringList returns all of them in
// declaration order.
func Parse(name string, r io.Reader) (*File, error) {
	scanner := bufio.NewScanner(r)
	file := &File{Name: name}
	var current *Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if current == nil {
			kind, entryName, err := parseHeader(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			current = &Entry{kind: kind, name: entryName, fields: map[string][]string{}}
			continue
		}
		if line == "}" {
			file.Entries = append(file.Entries, current)
			current = nil
			continue
		}
		key, value, err := parseAssignment(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		current.fields[key] = append(current.fields[key], value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if current != nil {
		return nil, fmt.Errorf("%s: unterminated entry %q", name, current.name)
	}
	return file, nil
}

func parseHeader(line string) (kind, name string, err error) {
	open := strings.IndexByte(line, '(')
	close := strings.IndexByte(line, ')')
	brace := strings.HasSuffix(line, "{")
	if open == -1 || close == -1 || close < open || !brace {
		return "", "", fmt.Errorf("expected '<kind>(<name>) {', got %q", line)
	}
	kind = strings.TrimSpace(line[:open])
	name = strings.TrimSpace(line[open+1 : close])
	if kind == "" || name == "" {
		return "", "", fmt.Errorf("expected '<kind>(<name>) {', got %q", line)
	}
	return kind, name, nil
}

func parseAssignment(line string) (key, value string, err error) {
	idx := strings.IndexByte(line, '=')
	if idx == -1 {
		return "", "", fmt.Errorf("expected 'key = value', got %q", line)
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), nil
}
