// Package moderation screens user content before it is stored.
//
// Screening is pure: the same text and configuration always produce the same
// verdict, and nothing here touches storage or the network.
package moderation

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
)

const (
	ReasonBannedTerm   = "banned_term"
	ReasonReviewTerm   = "review_term"
	ReasonTooManyLinks = "too_many_links"
	ReasonRepeated     = "repeated_characters"
	ReasonShouting     = "excessive_caps"
	ReasonTooLong      = "too_long"
)

// minLettersForCaps keeps short acronyms like "IEBC" from counting as shouting.
const minLettersForCaps = 20

var linkRegex = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s]+`)

type Filter struct {
	banned *trie
	review *trie
	cfg    config.Moderation
}

func NewFilter(cfg config.Moderation) *Filter {
	return &Filter{
		banned: newTrie(normalizeAll(cfg.BannedTerms)),
		review: newTrie(normalizeAll(cfg.ReviewTerms)),
		cfg:    cfg,
	}
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, normalize(t))
	}
	return out
}

// Screen classifies content. The action is the strongest one any rule asked
// for and the severity is the sum over all triggered rules.
func (f *Filter) Screen(content string) domain.Verdict {
	v := domain.Verdict{Action: domain.ActionAllow}
	trigger := func(action domain.ModerationAction, severity int, reason string) {
		v.Action = domain.StrongerAction(v.Action, action)
		v.Severity += severity
		v.Reasons = append(v.Reasons, reason)
	}

	normalized := normalize(content)

	if _, ok := f.banned.find(normalized); ok {
		trigger(domain.ActionReject, f.cfg.BannedTermSeverity, ReasonBannedTerm)
	}
	if _, ok := f.review.find(normalized); ok {
		trigger(domain.ActionHold, 1, ReasonReviewTerm)
	}
	if links := len(linkRegex.FindAllStringIndex(content, -1)); links > f.cfg.MaxLinks {
		trigger(domain.ActionHold, 1, ReasonTooManyLinks)
	}
	if f.cfg.MaxRepeatedChars > 0 && longestRun(content) >= f.cfg.MaxRepeatedChars {
		trigger(domain.ActionHold, 1, ReasonRepeated)
	}
	if shouting(content, f.cfg.MaxCapsRatio) {
		trigger(domain.ActionHold, 1, ReasonShouting)
	}
	if f.cfg.MaxLength > 0 && utf8.RuneCountInString(content) > f.cfg.MaxLength {
		trigger(domain.ActionReject, 1, ReasonTooLong)
	}

	return v
}

// longestRun is the longest run of one repeated non-space rune.
func longestRun(text string) int {
	var (
		prev    rune = -1
		run     int
		longest int
	)
	for _, r := range text {
		if unicode.IsSpace(r) {
			prev, run = -1, 0
			continue
		}
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func shouting(text string, maxRatio float64) bool {
	var letters, upper int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters < minLettersForCaps {
		return false
	}
	return float64(upper)/float64(letters) > maxRatio
}
