package app

import (
	"regexp"
	"strconv"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// Matches the placeholder tuples that follow the first one in a batch insert.
	repeatedTuplesRegex = regexp.MustCompile(`(?:, \(\$\d+(?:, \$\d+)*\))+`)
)

func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = repeatedTuplesRegex.ReplaceAllStringFunc(normalized, func(run string) string {
		return " /* +" + strconv.Itoa(strings.Count(run, "(")) + " rows */"
	})
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
