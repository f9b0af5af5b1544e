// Package script turns ordered article summaries into a spoken news-anchor
// script. Assembly is pure and deterministic: the same summaries and date
// always produce byte-identical output.
package script

import (
	"fmt"
	"strings"
	"time"

	"NewsreelAgent/internal/domain"
)

// WordsPerSecond is the average anchor speaking rate used to estimate the
// spoken duration of a script.
const WordsPerSecond = 2.5

var transitions = []string{"Next,", "In other news,", "Also today,", "Meanwhile,"}

// Assemble builds the full anchor script from ordered summaries: a dated
// greeting, each summary framed by its ordinal position, and a fixed
// sign-off.
func Assemble(summaries []domain.SummarizedArticle, date time.Time) domain.Script {
	var sections []string
	sections = append(sections, opening(date))

	for idx, item := range summaries {
		sections = append(sections, headline(idx, len(summaries), item.Summary))
	}

	sections = append(sections, closing())

	text := strings.Join(sections, "\n\n")
	wordCount := len(strings.Fields(text))

	return domain.Script{
		Text:             text,
		WordCount:        wordCount,
		EstimatedSeconds: float64(wordCount) / WordsPerSecond,
	}
}

func opening(date time.Time) string {
	return fmt.Sprintf("Good day. Here are today's top stories for %s.", date.Format("January 2, 2006"))
}

func headline(idx, total int, summary string) string {
	switch {
	case idx == 0:
		return "In our lead story, " + summary
	case idx == total-1:
		return "And finally, " + summary
	default:
		transition := transitions[min(idx-1, len(transitions)-1)]
		return transition + " " + summary
	}
}

func closing() string {
	return "That's all for now. Stay informed and have a great day."
}
