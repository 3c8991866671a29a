package match

import (
	"regexp"
	"strconv"
	"strings"
)

// Extractor populates suggested arguments for a matched tool from the raw
// (not lower-cased) user input. Extractors are heuristics: they may return an
// empty map, and they never fail.
type Extractor func(input string) map[string]any

var (
	quotedRe     = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	taskNumberRe = regexp.MustCompile(`(?i)task\s+#?(\d+)`)
	fileNameRe   = regexp.MustCompile(`[\w~./\\-]*\w\.[A-Za-z0-9]{1,5}\b`)
	dirPathRe    = regexp.MustCompile(`(?i)\b(?:in|inside|under|of)\s+(?:the\s+)?([\w./\\-]+)\s*(?:directory|folder)?`)
)

// statusKeywords maps surface phrases to canonical task statuses. Longer
// phrases are listed before their prefixes so classification checks them
// first.
var statusKeywords = []struct {
	phrase string
	status string
}{
	{"in progress", "in-progress"},
	{"in-progress", "in-progress"},
	{"completed", "done"},
	{"complete", "done"},
	{"finished", "done"},
	{"done", "done"},
	{"deferred", "deferred"},
	{"cancelled", "cancelled"},
	{"canceled", "cancelled"},
	{"pending", "pending"},
}

func defaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		"get_tasks":        extractTaskFilter,
		"add_task":         extractTaskPrompt,
		"set_task_status":  extractTaskStatus,
		"read_file":        extractFilePath,
		"write_file":       extractWriteFile,
		"list_directory":   extractDirectory,
		"brave_web_search": extractSearchQuery,
		"create_issue":     extractIssue,
	}
}

// firstQuoted returns the first single- or double-quoted span in the input.
func firstQuoted(input string) (string, bool) {
	m := quotedRe.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

func classifyStatus(input string) (string, bool) {
	lower := strings.ToLower(input)
	for _, sk := range statusKeywords {
		if strings.Contains(lower, sk.phrase) {
			return sk.status, true
		}
	}
	return "", false
}

func extractTaskFilter(input string) map[string]any {
	args := map[string]any{}
	if status, ok := classifyStatus(input); ok {
		args["status"] = status
	}
	return args
}

func extractTaskPrompt(input string) map[string]any {
	if quoted, ok := firstQuoted(input); ok {
		return map[string]any{"prompt": quoted}
	}
	// Fall back to the clause after "task to", e.g. "add a task to call Bob".
	lower := strings.ToLower(input)
	if idx := strings.Index(lower, "task to "); idx >= 0 {
		rest := strings.TrimSpace(input[idx+len("task to "):])
		if rest != "" {
			return map[string]any{"prompt": rest}
		}
	}
	return map[string]any{}
}

func extractTaskStatus(input string) map[string]any {
	args := map[string]any{}
	if m := taskNumberRe.FindStringSubmatch(input); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil {
			args["id"] = id
		}
	}
	if status, ok := classifyStatus(input); ok {
		args["status"] = status
	}
	return args
}

func extractFilePath(input string) map[string]any {
	if path := fileNameRe.FindString(input); path != "" {
		return map[string]any{"path": path}
	}
	return map[string]any{}
}

func extractWriteFile(input string) map[string]any {
	args := map[string]any{}
	if path := fileNameRe.FindString(input); path != "" {
		args["path"] = path
	}
	if quoted, ok := firstQuoted(input); ok {
		args["content"] = quoted
	}
	return args
}

func extractDirectory(input string) map[string]any {
	if m := dirPathRe.FindStringSubmatch(input); m != nil {
		return map[string]any{"path": m[1]}
	}
	return map[string]any{}
}

// searchPrefixes are stripped from the front of a search request so the
// remainder can serve as the query. Ordered longest first.
var searchPrefixes = []string{
	"search the web for",
	"search online for",
	"search for",
	"search",
	"look up",
	"find",
	"google",
}

func extractSearchQuery(input string) map[string]any {
	if quoted, ok := firstQuoted(input); ok {
		return map[string]any{"query": quoted}
	}
	lower := strings.ToLower(input)
	for _, prefix := range searchPrefixes {
		if strings.HasPrefix(lower, prefix) {
			query := strings.TrimSpace(input[len(prefix):])
			if query != "" {
				return map[string]any{"query": query}
			}
		}
	}
	return map[string]any{}
}

func extractIssue(input string) map[string]any {
	if quoted, ok := firstQuoted(input); ok {
		return map[string]any{"title": quoted}
	}
	lower := strings.ToLower(input)
	for _, marker := range []string{"issue about", "issue for", "bug about", "bug in"} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			rest := strings.TrimSpace(input[idx+len(marker):])
			if rest != "" {
				return map[string]any{"title": rest}
			}
		}
	}
	return map[string]any{}
}
