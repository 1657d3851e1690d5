package planner

import "strings"

const fence = "```"

// Sanitize strips surrounding whitespace and Markdown code fences (with an
// optional language tag) that models like to wrap JSON answers in. Nested
// fences are peeled until none remain, so Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	clean := strings.TrimSpace(raw)
	for strings.HasPrefix(clean, fence) {
		clean = stripFence(clean)
	}
	return clean
}

func stripFence(s string) string {
	s = strings.TrimPrefix(s, fence)
	s = strings.TrimLeft(s, " \t")
	s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_+-")
	s = strings.TrimPrefix(s, "\r")
	s = strings.TrimPrefix(s, "\n")

	if strings.HasSuffix(s, fence) {
		s = strings.TrimSuffix(s, fence)
		s = strings.TrimSuffix(s, "\n")
		s = strings.TrimSuffix(s, "\r")
	}
	return strings.TrimSpace(s)
}
