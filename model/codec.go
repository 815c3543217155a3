package model

import (
	"fmt"
	"strings"
)

// Decode parses a single todo.txt line. It is total: malformed or short
// lines yield a Record with best-effort empty fields, never an error.
// Lines longer than MaxLineLen are truncated first.
//
// Grammar, in order: optional "x " marker followed by the completion
// date token; an optional "(A)" priority token either right before or
// right after the due date (first match wins); the due date token; an
// optional "@context" token; everything left is the text, verbatim.
func Decode(line string) Record {
	if len(line) > MaxLineLen {
		line = line[:MaxLineLen]
	}
	rest := strings.TrimRight(line, "\r\n")
	r := Record{Context: ContextAll}

	if strings.HasPrefix(rest, "x ") {
		r.Completed = true
		r.CompletionDate, rest = takeToken(rest[2:])
	}

	if pri, after, ok := takePriority(rest); ok {
		r.Priority = pri
		rest = after
	}

	r.Date, rest = takeToken(rest)

	if r.Priority == "" {
		if pri, after, ok := takePriority(rest); ok {
			r.Priority = pri
			rest = after
		}
	}

	if strings.HasPrefix(rest, "@") {
		label, after := takeToken(rest[1:])
		if label != "" {
			r.Context = label
			rest = after
		}
	}

	r.Text = rest
	return r
}

// Encode renders a Record back to its line form.
//
// Completed:   x <completionDate> <date> @<context> <text>
// Prioritized: (<priority>) <date> @<context> <text>
// Plain:       <date> @<context> <text>
//
// For any r produced by Decode, Decode(Encode(r)) is field-equal to r.
func Encode(r Record) string {
	if r.Completed {
		return fmt.Sprintf("x %s %s @%s %s", r.CompletionDate, r.Date, r.Context, r.Text)
	}
	if r.Priority != "" {
		return fmt.Sprintf("(%s) %s @%s %s", r.Priority, r.Date, r.Context, r.Text)
	}
	return fmt.Sprintf("%s @%s %s", r.Date, r.Context, r.Text)
}

// takeToken consumes the next whitespace-delimited token and the
// whitespace that follows it.
func takeToken(s string) (token, rest string) {
	s = strings.TrimLeft(s, " \t")
	end := strings.IndexAny(s, " \t")
	if end == -1 {
		return s, ""
	}
	return s[:end], strings.TrimLeft(s[end:], " \t")
}

// takePriority matches a token of the exact form "(X)" where X is a
// letter, delimited by end of input or whitespace.
func takePriority(s string) (letter, rest string, ok bool) {
	if len(s) < 3 || s[0] != '(' || s[2] != ')' || !isLetter(s[1]) {
		return "", s, false
	}
	if len(s) > 3 && s[3] != ' ' && s[3] != '\t' {
		return "", s, false
	}
	return string(s[1]), strings.TrimLeft(s[3:], " \t"), true
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
