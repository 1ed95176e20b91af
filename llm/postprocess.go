package llm

import (
	"regexp"
	"strings"
)

// Phrases a chat model tends to wrap short answers in. They sound odd when
// read aloud after every question.
var greetingPhrases = []string{"have a great day", "thank you", "greetings", "goodbye", "hello", "hi"}

var (
	greetingRe = buildGreetingRe()
	spaceRe    = regexp.MustCompile(`[ \t]{2,}`)
	orphanRe   = regexp.MustCompile(`^[\s,.!;:]+`)
)

func buildGreetingRe() *regexp.Regexp {
	quoted := make([]string, len(greetingPhrases))
	for i, p := range greetingPhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b[,.!;:]*`)
}

// Postprocess strips greeting phrases as whole words, along with the
// punctuation trailing them, then tidies the whitespace left behind.
func Postprocess(text string) string {
	out := greetingRe.ReplaceAllString(text, "")
	out = spaceRe.ReplaceAllString(out, " ")
	out = orphanRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
