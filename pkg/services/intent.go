package services

import (
	"regexp"
	"strings"
)

// Intent is the routing decision for a free-text question.
type Intent string

const (
	IntentAnalyticsOnly Intent = "analytics_only"
	IntentSEOOnly       Intent = "seo_only"
	IntentMulti         Intent = "multi"
	IntentUnknown       Intent = "unknown"
)

// Keyword sets feeding the intent signals. Matching is substring-based over
// the lower-cased query.
var (
	analyticsKeywords = []string{
		"page view", "pageviews", "sessions", "users",
		"ga4", "property", "traffic", "top by", "top pages",
		"views", "top 10 pages", "top pages by",
	}

	seoKeywords = []string{
		"https", "title tag", "meta", "screaming frog",
		"indexable", "meta description", "duplicate",
		"seo",
	}

	// Cross-reference phrases suggest joining crawl data onto analytics data
	// even when no plain SEO keyword is present.
	seoCrossRefKeywords = []string{"title tag", "title tags", "corresponding title"}

	fusionKeywords = []string{"correlate", "corresponding", "fusion"}

	dateRelativePattern = regexp.MustCompile(`\blast\b|\blast \d+ days|\bprevious\b|\b30 days\b|\b14 days\b`)
)

// intentSignals are the precomputed predicates the rule table runs on.
type intentSignals struct {
	analytics    bool
	seo          bool
	seoCrossRef  bool
	fusion       bool
	dateRelative bool
}

// intentRule maps a signal predicate to an intent. Rules are evaluated in
// order; the first match wins.
type intentRule struct {
	name    string
	applies func(intentSignals) bool
	intent  Intent
}

// intentRules is the priority-ordered decision table.
var intentRules = []intentRule{
	{
		name:    "analytics words without any seo signal",
		applies: func(s intentSignals) bool { return s.analytics && !s.seo && !s.seoCrossRef },
		intent:  IntentAnalyticsOnly,
	},
	{
		name:    "seo words without analytics words",
		applies: func(s intentSignals) bool { return s.seo && !s.analytics },
		intent:  IntentSEOOnly,
	},
	{
		name: "both domains or an explicit fusion word",
		applies: func(s intentSignals) bool {
			return (s.analytics && s.seo) || (s.analytics && s.seoCrossRef) || s.fusion
		},
		intent: IntentMulti,
	},
	{
		name:    "date-relative phrasing implies a reporting question",
		applies: func(s intentSignals) bool { return s.dateRelative },
		intent:  IntentAnalyticsOnly,
	},
}

// Classify routes a free-text question to a backend intent. Pure function of
// the query text.
func Classify(query string) Intent {
	q := strings.ToLower(query)

	signals := intentSignals{
		analytics:    containsAny(q, analyticsKeywords),
		seo:          containsAny(q, seoKeywords),
		seoCrossRef:  containsAny(q, seoCrossRefKeywords),
		fusion:       containsAny(q, fusionKeywords),
		dateRelative: dateRelativePattern.MatchString(q),
	}

	for _, rule := range intentRules {
		if rule.applies(signals) {
			return rule.intent
		}
	}
	return IntentUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
