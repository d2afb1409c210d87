package utils

// Truncate clips s to maxLen bytes, marking the cut with an ellipsis.
// Display helper for long shell commands in status output.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
