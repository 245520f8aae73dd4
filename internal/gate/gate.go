// Package gate validates executed changes before a run is allowed to
// succeed. It enforces the content compliance policy and the per-run
// change volume limit.
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// criticalWords always fail when they appear without a compliance
// disclaimer. Health claims around these terms carry legal exposure, so
// the set is fixed in code rather than configurable.
var criticalWords = map[string]bool{
	"cure":         true,
	"treat":        true,
	"heal":         true,
	"diagnose":     true,
	"disease":      true,
	"prescription": true,
}

// Result is the outcome of one validation pass.
type Result struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Gate holds the configured policy.
type Gate struct {
	forbidden   []wordPattern
	disclaimers []string
	maxFiles    int
	logger      *zap.Logger
}

type wordPattern struct {
	word string
	re   *regexp.Regexp
}

// New compiles the forbidden-word patterns. Matching is case-insensitive
// and on word boundaries, so "treatment" does not match "treat".
func New(forbiddenWords, allowedDisclaimers []string, maxFileModifications int, logger *zap.Logger) (*Gate, error) {
	patterns := make([]wordPattern, 0, len(forbiddenWords))
	for _, w := range forbiddenWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile forbidden word %q: %w", w, err)
		}
		patterns = append(patterns, wordPattern{word: w, re: re})
	}
	return &Gate{
		forbidden:   patterns,
		disclaimers: allowedDisclaimers,
		maxFiles:    maxFileModifications,
		logger:      logger,
	}, nil
}

// CheckContent scans text for forbidden words. A critical word without a
// configured disclaimer in the same text is an error; a critical word
// covered by a disclaimer, or any non-critical forbidden word, is only a
// warning.
func (g *Gate) CheckContent(content string) Result {
	res := Result{Passed: true}
	hasDisclaimer := g.containsDisclaimer(content)

	for _, p := range g.forbidden {
		if !p.re.MatchString(content) {
			continue
		}
		if criticalWords[p.word] && !hasDisclaimer {
			res.Passed = false
			res.Errors = append(res.Errors,
				fmt.Sprintf("critical forbidden word %q used without a compliance disclaimer", p.word))
			continue
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("forbidden word %q found in content", p.word))
	}
	return res
}

// CheckChangeVolume fails when the run modified more distinct files than
// the configured ceiling allows.
func (g *Gate) CheckChangeVolume(filesModified []string) Result {
	distinct := make(map[string]bool, len(filesModified))
	for _, f := range filesModified {
		distinct[f] = true
	}

	res := Result{Passed: true}
	if len(distinct) > g.maxFiles {
		res.Passed = false
		res.Errors = append(res.Errors,
			fmt.Sprintf("%d files modified, limit is %d", len(distinct), g.maxFiles))
	}
	return res
}

// Validate runs both checks over the contents produced this run and the
// modified file list, merging the outcomes.
func (g *Gate) Validate(contents []string, filesModified []string) Result {
	res := Result{Passed: true}
	for _, c := range contents {
		merge(&res, g.CheckContent(c))
	}
	merge(&res, g.CheckChangeVolume(filesModified))

	if !res.Passed {
		g.logger.Error("validation gate failed",
			zap.Strings("errors", res.Errors),
			zap.Int("warnings", len(res.Warnings)))
	} else if len(res.Warnings) > 0 {
		g.logger.Warn("validation gate passed with warnings",
			zap.Strings("warnings", res.Warnings))
	}
	return res
}

func (g *Gate) containsDisclaimer(content string) bool {
	lower := strings.ToLower(content)
	for _, d := range g.disclaimers {
		if d != "" && strings.Contains(lower, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func merge(dst *Result, src Result) {
	if !src.Passed {
		dst.Passed = false
	}
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
}
