package models

import (
	"strconv"
	"strings"
)

// ParsePage converts raw user input to a page number. Input that is not an
// integer yields fallback.
func ParsePage(raw string, fallback int) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return page
}
