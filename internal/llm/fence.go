package llm

import "strings"

const fence = "```"

// returns KindCode when text is a single fenced block, KindText otherwise.
// Odd fence counts are malformed markdown and several blocks read as an explanation.
func ClassifyKind(text string) FragmentKind {
	if strings.Count(text, fence) != 2 {
		return KindText
	}

	if ExtractCode(text) == "" {
		return KindText
	}

	return KindCode
}

// extracts the body of the first fenced block, skipping the language tag.
// Returns empty string if there is no complete fence pair.
func ExtractCode(text string) string {
	startIdx := strings.Index(text, fence)
	if startIdx == -1 {
		return ""
	}

	afterStart := startIdx + len(fence)
	newlineIdx := strings.Index(text[afterStart:], "\n")
	if newlineIdx == -1 {
		return ""
	}

	codeStart := afterStart + newlineIdx + 1

	endIdx := strings.Index(text[codeStart:], fence)
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(text[codeStart : codeStart+endIdx])
}
