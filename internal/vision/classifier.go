package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrMalformedVerdict = errors.New("malformed classifier verdict")

const (
	TokenYes = "yes"
	TokenNo  = "no"

	defaultCacheSize = 1024
	defaultCacheTTL  = 30 * time.Second
)

// Judge is the upstream binary classifier. It must answer with exactly
// TokenYes or TokenNo; anything else is treated as a failure.
type Judge interface {
	Judge(ctx context.Context, text string) (string, error)
}

type Source string

const (
	SourceEmpty    Source = "empty"
	SourceCache    Source = "cache"
	SourceUpstream Source = "upstream"
	SourceFallback Source = "fallback"
)

type Verdict struct {
	Visual bool
	Source Source
}

type ClassifierConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

type Classifier struct {
	judge  Judge
	rules  *RuleSet
	cache  *expirable.LRU[string, bool]
	logger *slog.Logger
}

// NewClassifier builds the two-tier classifier. A nil judge leaves only the
// rule fallback; a nil rule set uses DefaultRuleSet.
func NewClassifier(judge Judge, rules *RuleSet, cfg ClassifierConfig, logger *slog.Logger) *Classifier {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		judge:  judge,
		rules:  rules,
		cache:  expirable.NewLRU[string, bool](cfg.CacheSize, nil, cfg.CacheTTL),
		logger: logger.With("component", "visual-classifier"),
	}
}

// Classify decides whether text needs an image to be answered. It never
// fails: upstream problems fall through to the rule set. Only upstream
// verdicts are cached, so a recovering upstream is consulted again at once.
func (c *Classifier) Classify(ctx context.Context, text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return Verdict{Visual: false, Source: SourceEmpty}
	}

	if visual, ok := c.cache.Get(text); ok {
		return Verdict{Visual: visual, Source: SourceCache}
	}

	if c.judge != nil {
		visual, err := c.askJudge(ctx, text)
		if err == nil {
			c.cache.Add(text, visual)
			return Verdict{Visual: visual, Source: SourceUpstream}
		}
		c.logger.Warn("upstream classification failed, using rules", "error", err)
	}

	return Verdict{Visual: c.rules.Match(text), Source: SourceFallback}
}

func (c *Classifier) askJudge(ctx context.Context, text string) (bool, error) {
	raw, err := c.judge.Judge(ctx, text)
	if err != nil {
		return false, err
	}
	return ParseVerdict(raw)
}

// ParseVerdict enforces the two-token output contract.
func ParseVerdict(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case TokenYes:
		return true, nil
	case TokenNo:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrMalformedVerdict, raw)
	}
}
