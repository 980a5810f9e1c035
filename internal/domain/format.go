package domain

import (
	"fmt"
	"strings"
)

const repositoryURL = "https://github.com/SpiritAxolotl/ca-dmv-bot"

// symbols maps the special glyphs that may appear on a plate to the words
// used when reading the plate aloud in alt text.
var symbols = map[rune]string{
	'#': "hand",
	'$': "heart",
	'+': "plus",
	'&': "star",
}

// PostBody formats the published caption for an entry. Pool entries credit
// the approving reviewer; community entries credit the submitter instead.
func PostBody(entry QueueEntry) string {
	if entry.Community {
		submitter := "Anonymous User"
		if entry.Submitter != "" {
			submitter = "@" + entry.Submitter
		}
		return fmt.Sprintf("Community Plate! Submitted by %s\n\nCustomer: %s\nDMV: %s\n\nVerdict: %s",
			submitter,
			entry.Record.CustomerComment,
			entry.Record.DMVComment,
			entry.Record.Verdict,
		)
	}
	return fmt.Sprintf("Customer: %s\nDMV: %s\n\nVerdict: %s\n<!-- plate approved by `%s` (%s) -->",
		entry.Record.CustomerComment,
		entry.Record.DMVComment,
		entry.Record.Verdict,
		entry.Approval.Identity,
		entry.Approval.Time.UTC().Format("2006-01-02T15:04:05Z"),
	)
}

// PreviewBody formats the caption shown to a reviewer before deciding,
// without any approval credit.
func PreviewBody(rec Record) string {
	return fmt.Sprintf("Customer: %s\nDMV: %s\n\nVerdict: %s",
		rec.CustomerComment,
		rec.DMVComment,
		rec.Verdict,
	)
}

// AltText expands plate glyphs into words and wraps the result in the
// accessibility sentence attached to every published image.
func AltText(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r == '/' {
			b.WriteRune(' ')
			continue
		}
		if word, ok := symbols[r]; ok {
			b.WriteString(fmt.Sprintf(" (%s) ", word))
			continue
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("California license plate with text %q.", strings.TrimSpace(b.String()))
}

// Bio formats the account profile text with the corpus completion share,
// where completion is in [0,1].
func Bio(completion float64) string {
	return fmt.Sprintf("Real personalized license plate applications that the California DMV received from 2015-2017. Posts hourly. Not the CA DMV. (%.2f%% complete)",
		completion*100)
}
