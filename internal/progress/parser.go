package progress

import (
	"regexp"
	"strconv"
	"strings"
)

// rule pairs a case-insensitive keyword gate with the pattern that
// extracts the value. The gate keeps the regex off most lines.
type rule struct {
	kind    Kind
	keyword string
	pattern *regexp.Regexp
}

var rules = []rule{
	{kind: KindExamples, keyword: "examples", pattern: regexp.MustCompile(`Evaluated (\d+)`)},
	{kind: KindTokens, keyword: "tokens", pattern: regexp.MustCompile(`(\d+) tokens`)},
	{kind: KindTask, keyword: "task", pattern: regexp.MustCompile(`Task: (.+)`)},
}

// ParseLine returns every match found in line, in examples, tokens, task
// order. A single line may carry all three.
func ParseLine(line string) []Match {
	line = strings.TrimRight(line, "\r\n")
	lower := strings.ToLower(line)

	var matches []Match
	for _, r := range rules {
		if !strings.Contains(lower, r.keyword) {
			continue
		}

		sub := r.pattern.FindStringSubmatch(line)
		if sub == nil {
			continue
		}

		switch r.kind {
		case KindTask:
			label := strings.TrimSpace(sub[1])
			if label == "" {
				continue
			}
			matches = append(matches, Match{Kind: KindTask, Label: label})
		default:
			n, err := strconv.ParseInt(sub[1], 10, 64)
			if err != nil {
				// Out of range for int64.
				continue
			}
			matches = append(matches, Match{Kind: r.kind, Count: n})
		}
	}

	return matches
}
