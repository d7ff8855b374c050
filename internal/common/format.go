package common

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultWidth = 80
	WideWidth    = 100

	timestampLayout = "2006-01-02 15:04:05"
)

func rule(char string, width int) string {
	return strings.Repeat(char, width)
}

// PrintSeparator prints one line of char repeated width times
func PrintSeparator(char string, width int) {
	fmt.Println(rule(char, width))
}

// PrintHeader prints a report title framed by double rules
func PrintHeader(title string, width int) {
	fmt.Printf("\n%s\n%s\n%s\n", rule("=", width), title, rule("=", width))
}

// PrintFooter prints a closing summary line framed like the header
func PrintFooter(message string, width int) {
	fmt.Printf("\n%s\n%s\n%s\n\n", rule("=", width), message, rule("=", width))
}

func PrintBoxSeparator(width int) {
	fmt.Println("├" + rule("─", width))
}

// BoxPrefix opens a tree-style list row; the last row closes the box
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// TruncateText shortens s to at most max runes, marking the cut with "..."
func TruncateText(s string, max int) string {
	if max <= 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

// FormatTimestamp renders report timestamps in UTC; nil prints as "-"
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timestampLayout)
}
