package vision

import (
	"fmt"
	"regexp"
	"strings"
)

// Demonstratives and visual-attribute words that, in Japanese speech,
// usually point at whatever the camera is looking at.
var defaultTokens = []string{
	"これ", "それ", "あれ", "この", "その", "あの",
	"写真", "画像", "映って", "写って", "見える",
	"色", "形", "大きさ", "何が", "誰が", "どこに",
}

var defaultPatterns = []string{
	`(何|なに)(が|を)?(見え|写|映)`,
	`(?i)\b(this|that|these|those|it)\b`,
	`(?i)\b(colou?rs?|shapes?|size)\b`,
	`(?i)\b(photo|picture|image|camera)s?\b`,
	`(?i)what (do|can) you see`,
}

// RuleSet is the deterministic fallback used when the upstream classifier
// cannot answer. Match never fails.
type RuleSet struct {
	tokens   []string
	patterns []*regexp.Regexp
}

func NewRuleSet(tokens, patterns []string) (*RuleSet, error) {
	rs := &RuleSet{
		tokens:   make([]string, 0, len(tokens)),
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			rs.tokens = append(rs.tokens, tok)
		}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		rs.patterns = append(rs.patterns, re)
	}
	return rs, nil
}

func DefaultRuleSet() *RuleSet {
	rs, err := NewRuleSet(defaultTokens, defaultPatterns)
	if err != nil {
		panic(err)
	}
	return rs
}

// Match reports whether text looks like it refers to visual context.
// Empty or whitespace-only text never matches.
func (r *RuleSet) Match(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, tok := range r.tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
