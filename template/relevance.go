package template

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Relevance tiers. An exact path or schema match dominates everything a
// pattern can accumulate, so a purpose-saved template always beats a
// generic one.
const (
	scoreExactPathAndSchema    = 2000.0
	scoreRelativePathAndSchema = 1950.0
	scoreExactPath             = 1000.0
	scoreRelativePath          = 950.0
	scoreExactSchema           = 900.0

	scorePathPattern     = 50.0
	scoreFilenamePattern = 30.0
	scorePerSchemaColumn = 2.0
)

// relevance scores how well a template fits the dataset at filePath with
// the given column names.
func relevance(t Template, filePath string, columns []string, now time.Time) float64 {
	exactPath := t.Criteria.ExactPath != "" && t.Criteria.ExactPath == filePath
	relPath := relativePathMatches(t.Criteria.RelativePath, filePath)
	exactSchema := exactSchemaMatch(t.Criteria.SchemaColumns, columns)

	switch {
	case exactPath && exactSchema:
		return scoreExactPathAndSchema
	case exactPath:
		return scoreExactPath
	case relPath && exactSchema:
		return scoreRelativePathAndSchema
	case relPath:
		return scoreRelativePath
	case exactSchema:
		return scoreExactSchema
	}

	var score float64
	if t.Criteria.PathPattern != "" && matchesPattern(filePath, t.Criteria.PathPattern) {
		score += scorePathPattern + specificityBonus(t.Criteria.PathPattern)
	}
	if t.Criteria.FilenamePattern != "" && matchesPattern(filepath.Base(filePath), t.Criteria.FilenamePattern) {
		score += scoreFilenamePattern + specificityBonus(t.Criteria.FilenamePattern)
	}
	if len(t.Criteria.SchemaColumns) > 0 {
		have := make(map[string]bool, len(columns))
		for _, c := range columns {
			have[c] = true
		}
		for _, c := range t.Criteria.SchemaColumns {
			if have[c] {
				score += scorePerSchemaColumn
			}
		}
	}

	// Usage and recency bonuses, capped so popularity cannot outweigh a
	// better structural match.
	usage := t.UsageCount
	if usage > 10 {
		usage = 10
	}
	score += float64(usage)
	if t.LastUsed != nil {
		switch days := int(now.Sub(*t.LastUsed).Hours() / 24); {
		case days <= 7:
			score += 5
		case days <= 30:
			score += 2
		}
	}

	// Age penalty: one point per month since creation.
	if months := now.Sub(t.Created).Hours() / (24 * 30); months > 0 {
		score -= float64(int(months))
	}
	return score
}

func relativePathMatches(relative, filePath string) bool {
	if relative == "" {
		return false
	}
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(cwd, filePath)
	if err != nil {
		return false
	}
	return rel == relative
}

// exactSchemaMatch reports whether the dataset's columns are exactly the
// required set, order-insensitive.
func exactSchemaMatch(required, columns []string) bool {
	if len(required) == 0 || len(required) != len(columns) {
		return false
	}
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, c := range required {
		if !have[c] {
			return false
		}
	}
	return true
}

// specificityBonus rewards patterns with fewer wildcards: a template
// saved for "trades_2024.csv" should outrank one saved for "*.csv".
func specificityBonus(pattern string) float64 {
	wildcards := strings.Count(pattern, "*") + strings.Count(pattern, "?")
	switch wildcards {
	case 0:
		return 10
	case 1:
		return 5
	case 2:
		return 3
	case 3:
		return 1
	default:
		return 0
	}
}

// matchesPattern is simple glob matching: * matches any run, ? matches
// one character.
func matchesPattern(text, pattern string) bool {
	if pattern == "*" {
		return true
	}
	return globMatch(text, pattern)
}

func globMatch(text, pattern string) bool {
	// Iterative glob with single-star backtracking.
	ti, pi := 0, 0
	starPi, starTi := -1, 0
	for ti < len(text) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == text[ti]):
			ti++
			pi++
		case pi < len(pattern) && pattern[pi] == '*':
			starPi, starTi = pi, ti
			pi++
		case starPi >= 0:
			starTi++
			ti = starTi
			pi = starPi + 1
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
