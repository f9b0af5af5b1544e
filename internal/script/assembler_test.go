package script

import (
	"strings"
	"testing"
	"time"

	"NewsreelAgent/internal/domain"
)

func summaries(texts ...string) []domain.SummarizedArticle {
	out := make([]domain.SummarizedArticle, 0, len(texts))
	for _, text := range texts {
		out = append(out, domain.SummarizedArticle{Summary: text})
	}
	return out
}

func TestAssembleDeterministic(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
	input := summaries("a big merger closed.", "a storm hit the coast.", "a rover landed.")

	first := Assemble(input, date)
	second := Assemble(input, date)

	if first.Text != second.Text {
		t.Fatalf("assembly is not deterministic:\n%q\nvs\n%q", first.Text, second.Text)
	}
	if first.WordCount != second.WordCount || first.EstimatedSeconds != second.EstimatedSeconds {
		t.Fatalf("derived fields differ across identical calls")
	}
}

func TestAssembleFraming(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	result := Assemble(summaries("first.", "second.", "third.", "fourth."), date)

	if !strings.HasPrefix(result.Text, "Good day. Here are today's top stories for March 14, 2025.") {
		t.Fatalf("missing dated opening: %q", result.Text)
	}
	if !strings.Contains(result.Text, "In our lead story, first.") {
		t.Fatalf("lead story framing missing: %q", result.Text)
	}
	if !strings.Contains(result.Text, "Next, second.") {
		t.Fatalf("first middle transition missing: %q", result.Text)
	}
	if !strings.Contains(result.Text, "In other news, third.") {
		t.Fatalf("second middle transition missing: %q", result.Text)
	}
	if !strings.Contains(result.Text, "And finally, fourth.") {
		t.Fatalf("final framing missing: %q", result.Text)
	}
	if !strings.HasSuffix(result.Text, "That's all for now. Stay informed and have a great day.") {
		t.Fatalf("missing sign-off: %q", result.Text)
	}
}

func TestAssembleSingleSummaryGetsLeadFraming(t *testing.T) {
	t.Parallel()

	result := Assemble(summaries("only story."), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(result.Text, "In our lead story, only story.") {
		t.Fatalf("single item should use lead framing: %q", result.Text)
	}
}

func TestAssembleWordCountAndDuration(t *testing.T) {
	t.Parallel()

	result := Assemble(summaries("one two three."), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	wantWords := len(strings.Fields(result.Text))
	if result.WordCount != wantWords {
		t.Fatalf("word count %d, want %d", result.WordCount, wantWords)
	}

	wantSeconds := float64(wantWords) / WordsPerSecond
	if result.EstimatedSeconds != wantSeconds {
		t.Fatalf("estimated seconds %f, want %f", result.EstimatedSeconds, wantSeconds)
	}
}

func TestEstimatedSecondsScalesLinearly(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	small := Assemble(summaries("alpha beta gamma."), date)
	large := Assemble(summaries("alpha beta gamma.", strings.Repeat("word ", 100)), date)

	smallRate := small.EstimatedSeconds / float64(small.WordCount)
	largeRate := large.EstimatedSeconds / float64(large.WordCount)
	if smallRate != largeRate {
		t.Fatalf("speaking rate not constant: %f vs %f", smallRate, largeRate)
	}
}
