package domain

import (
	"crypto/rand"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// foldCaser performs Unicode case folding once at package init, reused by
// FuzzyDedupeMerge for every comparison.
var foldCaser = cases.Fold()

// NumericTieBreak selects among equally-extreme numeric candidates when a
// numeric coalesce MergeFunc encounters a tie.
type NumericTieBreak int

const (
	// TieKeepQueued prefers the message already sitting in the edge.
	TieKeepQueued NumericTieBreak = iota
	// TieKeepIncoming prefers the newly arriving message.
	TieKeepIncoming
	// TieRandomPick selects uniformly at random between the two, using
	// crypto/rand for an unbiased draw.
	TieRandomPick
)

func pickOnTie(queued, incoming Message, tie NumericTieBreak) Message {
	switch tie {
	case TieKeepIncoming:
		return incoming
	case TieRandomPick:
		n, err := rand.Int(rand.Reader, big.NewInt(2))
		if err == nil && n.Int64() == 1 {
			return incoming
		}
		return queued
	default: // TieKeepQueued
		return queued
	}
}

// numericValue extracts a float64 from a Message payload. ok is false for
// any payload that is not one of the supported numeric types; MaxMerge and
// MinMerge then let a numeric competitor win, and SumMerge counts it as
// zero.
func numericValue(m Message) (float64, bool) {
	switch v := m.Payload().(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// MaxMerge returns a MergeFunc for CoalescePolicy that keeps whichever of
// the queued and incoming messages carries the larger numeric payload,
// breaking ties per tie. A message whose payload is not numeric loses to
// any numeric competitor and, if both are non-numeric, the incoming message
// wins so the queue always reflects the most recent observation.
func MaxMerge(tie NumericTieBreak) MergeFunc {
	return func(queued, incoming Message) Message {
		qv, qOK := numericValue(queued)
		iv, iOK := numericValue(incoming)
		switch {
		case qOK && iOK:
			switch {
			case iv > qv:
				return incoming
			case qv > iv:
				return queued
			default:
				return pickOnTie(queued, incoming, tie)
			}
		case iOK:
			return incoming
		case qOK:
			return queued
		default:
			return incoming
		}
	}
}

// MinMerge is MaxMerge's counterpart, keeping the smaller numeric payload.
func MinMerge(tie NumericTieBreak) MergeFunc {
	return func(queued, incoming Message) Message {
		qv, qOK := numericValue(queued)
		iv, iOK := numericValue(incoming)
		switch {
		case qOK && iOK:
			switch {
			case iv < qv:
				return incoming
			case qv < iv:
				return queued
			default:
				return pickOnTie(queued, incoming, tie)
			}
		case iOK:
			return incoming
		case qOK:
			return queued
		default:
			return incoming
		}
	}
}

// SumMerge returns a MergeFunc that replaces both payloads with their
// numeric sum, useful for coalescing counter-like updates (e.g. batched
// increments) without losing earlier increments the way LatestPolicy would.
// Non-numeric payloads are treated as zero.
func SumMerge() MergeFunc {
	return func(queued, incoming Message) Message {
		qv, _ := numericValue(queued)
		iv, _ := numericValue(incoming)
		sum := qv + iv
		if math.IsNaN(sum) || math.IsInf(sum, 0) {
			return incoming
		}
		return incoming.WithPayload(sum)
	}
}

// LatestWinsMerge returns a MergeFunc that simply keeps the incoming
// message, equivalent in effect to LatestPolicy but expressed as an
// explicit Coalesce so the replaced-vs-dropped distinction stays visible in
// PutResult.Outcome (PutCoalesced rather than PutReplaced).
func LatestWinsMerge() MergeFunc {
	return func(_, incoming Message) Message { return incoming }
}

// FuzzyDedupeMerge returns a MergeFunc that treats the queued and incoming
// messages as near-duplicates when their string payloads' normalized
// Levenshtein similarity meets or exceeds threshold (0 to 1), keeping the
// incoming message in that case and otherwise falling back to keeping the
// queued message, which preserves the earlier-arriving distinct value
// rather than silently losing it. Non-string payloads are compared by
// their fmt-independent type mismatch, which always falls back to keeping
// the queued message.
func FuzzyDedupeMerge(threshold float64) MergeFunc {
	return func(queued, incoming Message) Message {
		qs, qOK := queued.Payload().(string)
		is, iOK := incoming.Payload().(string)
		if !qOK || !iOK {
			return queued
		}
		if fuzzySimilarity(qs, is) >= threshold {
			return incoming
		}
		return queued
	}
}

// fuzzySimilarity computes a 0..1 similarity score from Levenshtein edit
// distance over case-folded strings, normalized by the longer string's rune
// count.
func fuzzySimilarity(s1, s2 string) float64 {
	s1 = foldCaser.String(s1)
	s2 = foldCaser.String(s2)
	if s1 == s2 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(s1, s2)

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}
