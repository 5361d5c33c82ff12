package util

import "strings"

// MakeTextList gives a nice human-readable list of things based on their
// display name. The input slice is not modified.
func MakeTextList(items []string) string {
	if len(items) < 1 {
		return ""
	}

	if len(items) == 1 {
		return items[0]
	}
	if len(items) == 2 {
		return items[0] + " and " + items[1]
	}

	// if its more than two, use an oxford comma
	listed := make([]string, len(items))
	copy(listed, items)
	listed[len(listed)-1] = "and " + listed[len(listed)-1]
	return strings.Join(listed, ", ")
}
