package gateway

import (
	"fmt"
	"strings"
)

// buildPrompt constructs the translation prompt. The provider must answer
// with a single JSON object mapping each requested language to its
// translation, nothing else. Literal \n sequences in the source represent
// linefeeds and must be preserved as the two-character escape.
func buildPrompt(text string, languages []string) string {
	var b strings.Builder
	b.WriteString("Translate the following English text into these languages: ")
	b.WriteString(strings.Join(languages, ", "))
	b.WriteString(".\n")
	b.WriteString("Respond with only a JSON object whose keys are exactly the language names given above and whose values are the translations. ")
	b.WriteString("Do not include the original text in the response. ")
	b.WriteString("Preserve all \\n sequences as they represent linefeeds; do not convert them to actual linefeeds.\n\n")
	fmt.Fprintf(&b, "Text: %q", text)
	return b.String()
}
