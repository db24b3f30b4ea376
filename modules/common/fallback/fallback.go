package fallback

import (
	"fmt"
	"strings"
)

// NoTextAnalysis is used when the text model returned neither text nor a block reason.
const NoTextAnalysis = "Unable to get text from model. The prompt may have been blocked or returned no text."

// DefaultSubject stands in for an empty subject description.
const DefaultSubject = "the uploaded subject"

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fallback string) string {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fallback
}

// BlockedAnalysis formats the message shown when the provider blocked the prompt.
func BlockedAnalysis(reason string) string {
	return fmt.Sprintf("[Content not returned: %s. Try a different subject or description.]", reason)
}

// Analysis picks the first usable value in degradation order:
// extracted text, block reason, partial fragments, generic placeholder.
func Analysis(text, blockReason string, fragments []string) string {
	if s := strings.TrimSpace(text); s != "" {
		return text
	}
	if blockReason != "" {
		return BlockedAnalysis(blockReason)
	}
	if joined := JoinFragments(fragments); joined != "" {
		return joined
	}
	return NoTextAnalysis
}

// JoinFragments joins fragments with newlines, skipping whitespace-only ones.
func JoinFragments(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f) != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, "\n")
}
