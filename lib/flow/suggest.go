// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// suggestName returns the candidate closest to unknown, or "" if none
// is close enough. Edit distance (at most 3) catches typos; when no
// candidate is that close, an fzf fuzzy match catches abbreviations
// ("cfg" for "config").
func suggestName(unknown string, candidates []string) string {
	bestName := ""
	bestDistance := 4 // threshold: only suggest if distance <= 3

	for _, candidate := range candidates {
		distance := levenshtein(unknown, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestName = candidate
		}
	}
	if bestName != "" {
		return bestName
	}

	return fuzzyBest(unknown, candidates)
}

var initFuzzy sync.Once

// fuzzyBest returns the candidate with the highest fzf match score for
// pattern, or "" if nothing matches.
func fuzzyBest(pattern string, candidates []string) string {
	initFuzzy.Do(func() { algo.Init("default") })

	runes := []rune(strings.ToLower(pattern))
	if len(runes) == 0 {
		return ""
	}
	slab := util.MakeSlab(100*1024, 2048)

	bestName := ""
	bestScore := 0
	for _, candidate := range candidates {
		chars := util.ToChars([]byte(candidate))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, runes, false, slab)
		if result.Start < 0 {
			continue
		}
		if result.Score > bestScore {
			bestScore = result.Score
			bestName = candidate
		}
	}
	return bestName
}

// levenshtein computes the Levenshtein edit distance between two strings.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Single row of the distance matrix, updated in place.
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			deletion := previous[i] + 1
			insertion := current[i-1] + 1
			substitution := previous[i-1] + cost

			current[i] = min(deletion, min(insertion, substitution))
		}

		previous = current
	}

	return previous[len(a)]
}
