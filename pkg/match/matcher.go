// Package match maps free-text user intent onto tools exposed by the active
// MCP servers. The matcher runs entirely in memory against a static pattern
// table, so common requests can skip an LLM round-trip for tool selection.
package match

import (
	"fmt"
	"sort"
	"strings"
)

// Scoring weights and thresholds. The values are carried over from the
// original assistant's tuning; they are reproducible, not proven optimal.
const (
	KeywordWeight = 0.4
	ContextWeight = 0.3
	ExampleWeight = 0.3

	// ExampleSimilarityGate is the minimum Jaccard similarity an example
	// phrase must reach before it contributes to the score.
	ExampleSimilarityGate = 0.5

	// AdmissionThreshold filters out weak candidates. Matches at or below
	// this confidence are never returned.
	AdmissionThreshold = 0.3
)

// ParameterSpec describes a single named parameter of a tool.
type ParameterSpec struct {
	Type        string
	Description string
	Required    bool
}

// ToolDescriptor is the matcher's read-only view of a catalog entry. The
// session owns the catalog; descriptors are immutable for the turn.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  map[string]ParameterSpec
}

// ToolMatch is a single ranked candidate produced for one user utterance.
type ToolMatch struct {
	ToolName           string
	Confidence         float64
	SuggestedArguments map[string]any
	Reasoning          string
}

// Pattern holds the per-tool vocabulary the matcher scores against.
type Pattern struct {
	Keywords []string
	Context  []string
	Examples []string
}

type patternEntry struct {
	tool    string
	pattern Pattern
}

// Matcher scores user input against its pattern table. A Matcher is immutable
// after construction and safe for concurrent use.
type Matcher struct {
	entries    []patternEntry
	extractors map[string]Extractor
}

// NewMatcher returns a matcher seeded with the default pattern table and
// argument extractors.
func NewMatcher() *Matcher {
	return &Matcher{
		entries:    defaultPatterns(),
		extractors: defaultExtractors(),
	}
}

// NewMatcherWithPatterns builds a matcher from a caller-supplied table. The
// slice order fixes the tie-break order of equal-confidence matches.
func NewMatcherWithPatterns(tools []string, patterns map[string]Pattern, extractors map[string]Extractor) *Matcher {
	entries := make([]patternEntry, 0, len(tools))
	for _, name := range tools {
		p, ok := patterns[name]
		if !ok {
			continue
		}
		entries = append(entries, patternEntry{tool: name, pattern: p})
	}
	return &Matcher{entries: entries, extractors: extractors}
}

// FindMatchingTools returns candidate invocations for the given input, sorted
// by confidence descending. Ties keep the pattern-table order. Only tools
// present in both the catalog and the pattern table are considered, and only
// candidates with confidence strictly above AdmissionThreshold are returned.
// The function is deterministic and has no side effects.
func (m *Matcher) FindMatchingTools(userInput string, catalog []ToolDescriptor) []ToolMatch {
	if m == nil || strings.TrimSpace(userInput) == "" || len(catalog) == 0 {
		return nil
	}

	available := make(map[string]bool, len(catalog))
	for _, desc := range catalog {
		available[strings.ToLower(desc.Name)] = true
	}

	lower := strings.ToLower(userInput)

	var matches []ToolMatch
	for _, entry := range m.entries {
		if !available[strings.ToLower(entry.tool)] {
			continue
		}

		confidence, reasoning := scorePattern(lower, entry.pattern)
		if confidence <= AdmissionThreshold {
			continue
		}
		if confidence > 1 {
			confidence = 1
		}

		args := map[string]any{}
		if extract, ok := m.extractors[entry.tool]; ok && extract != nil {
			if extracted := extract(userInput); len(extracted) > 0 {
				args = extracted
			}
		}

		matches = append(matches, ToolMatch{
			ToolName:           entry.tool,
			Confidence:         confidence,
			SuggestedArguments: args,
			Reasoning:          reasoning,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// Tools returns the tool names the matcher knows about, in table order.
func (m *Matcher) Tools() []string {
	names := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		names = append(names, entry.tool)
	}
	return names
}

// scorePattern computes the composite confidence of one pattern against the
// lower-cased input. The three components are weighted fractions: keyword
// phrases found as substrings, context words found, and the first example
// whose Jaccard word-set similarity clears the gate.
func scorePattern(lowerInput string, p Pattern) (float64, string) {
	var confidence float64
	var parts []string

	if len(p.Keywords) > 0 {
		hits := 0
		for _, kw := range p.Keywords {
			if strings.Contains(lowerInput, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits > 0 {
			confidence += KeywordWeight * float64(hits) / float64(len(p.Keywords))
			parts = append(parts, fmt.Sprintf("%d/%d keywords", hits, len(p.Keywords)))
		}
	}

	if len(p.Context) > 0 {
		hits := 0
		for _, word := range p.Context {
			if strings.Contains(lowerInput, strings.ToLower(word)) {
				hits++
			}
		}
		if hits > 0 {
			confidence += ContextWeight * float64(hits) / float64(len(p.Context))
			parts = append(parts, fmt.Sprintf("%d/%d context words", hits, len(p.Context)))
		}
	}

	inputWords := wordSet(lowerInput)
	for _, example := range p.Examples {
		sim := jaccard(inputWords, wordSet(strings.ToLower(example)))
		if sim > ExampleSimilarityGate {
			confidence += ExampleWeight * sim
			parts = append(parts, fmt.Sprintf("example similarity %.2f", sim))
			break
		}
	}

	if len(parts) == 0 {
		return confidence, "no signals"
	}
	return confidence, "matched " + strings.Join(parts, ", ")
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"")
		if w != "" {
			set[w] = true
		}
	}
	return set
}

// jaccard computes |a ∩ b| / |a ∪ b| over word sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
