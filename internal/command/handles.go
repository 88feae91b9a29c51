package command

import "regexp"

var (
	// startPattern recognizes a standup request at the start of a message.
	startPattern = regexp.MustCompile(`^Standup for:`)

	// handlePattern extracts email-like participant handles. Only lowercase
	// letters, digits and dots are accepted on either side of the "@".
	handlePattern = regexp.MustCompile(`[a-z0-9\.]*@[a-z\.]*`)
)

// ExtractHandles returns every participant handle in text, in order of
// appearance. Duplicates are kept.
func ExtractHandles(text string) []string {
	return handlePattern.FindAllString(text, -1)
}
