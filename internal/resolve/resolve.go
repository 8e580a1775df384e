// Package resolve maps cataloged recording rows to canonical provider
// recordings.
//
// Secondary IDs (recurring meeting numbers) are not unique: one recurring
// class produces many canonical recordings sharing a secondary ID. The
// resolver therefore groups candidates explicitly and disambiguates by time
// window, never by secondary ID alone.
package resolve

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"scribe/internal/catalog"
	"scribe/internal/textutil"
)

// Confidence classifies one resolution outcome. Ambiguity and absence are
// results, not errors.
type Confidence string

const (
	// ConfidenceExact is a direct share-token match, or a unique candidate
	// with equal secondary ID inside the strict sub-window.
	ConfidenceExact Confidence = "EXACT"
	// ConfidenceTimeWindow is a unique candidate that won on time alone.
	ConfidenceTimeWindow Confidence = "TIME_WINDOW"
	// ConfidenceAmbiguous means several candidates remain tied; an operator
	// must pick.
	ConfidenceAmbiguous Confidence = "AMBIGUOUS"
	// ConfidenceNone means nothing fell inside the window.
	ConfidenceNone Confidence = "NONE"
)

// Recording is one canonical provider record.
type Recording struct {
	UUID            string
	SecondaryID     string
	Topic           string
	StartTime       time.Time
	DurationSeconds int
	FileVariants    []string
	ShareURL        string
}

// MatchResult is the resolution outcome for one catalog record, in catalog
// input order. Candidates lists everything considered, closest first, for
// audit. Err is set only for malformed input (for example a record with no
// usable timestamp); the batch continues past it.
type MatchResult struct {
	Record      catalog.Record
	MatchedUUID string
	Confidence  Confidence
	Candidates  []Recording
	Reason      string
	Err         error
}

// Policy holds the matching tolerances. Zero values take the defaults.
type Policy struct {
	Window                   time.Duration
	StrictWindow             time.Duration
	TopicSimilarityThreshold float64
}

const (
	defaultWindow          = 15 * time.Minute
	defaultStrictWindow    = 2 * time.Minute
	defaultTopicSimilarity = 0.55
)

func (p Policy) normalized() Policy {
	if p.Window <= 0 {
		p.Window = defaultWindow
	}
	if p.StrictWindow <= 0 {
		p.StrictWindow = defaultStrictWindow
	}
	if p.StrictWindow > p.Window {
		p.StrictWindow = p.Window
	}
	if p.TopicSimilarityThreshold <= 0 {
		p.TopicSimilarityThreshold = defaultTopicSimilarity
	}
	return p
}

// pool tracks canonical recordings grouped by secondary ID with greedy
// one-to-one consumption: once a recording is matched it leaves the pool.
type pool struct {
	bySecondary map[string][]*poolEntry
	all         []*poolEntry
}

type poolEntry struct {
	rec        Recording
	shareToken string
	consumed   bool
}

func newPool(recordings []Recording) *pool {
	p := &pool{bySecondary: make(map[string][]*poolEntry)}
	for _, rec := range recordings {
		entry := &poolEntry{rec: rec}
		if rec.ShareURL != "" {
			_, entry.shareToken = catalog.ParseShareURL(rec.ShareURL)
		}
		p.all = append(p.all, entry)
		if rec.SecondaryID != "" {
			p.bySecondary[rec.SecondaryID] = append(p.bySecondary[rec.SecondaryID], entry)
		}
	}
	return p
}

// byShareToken returns the first unconsumed entry whose share link carries
// the cataloged token. Tokens are sometimes truncated when pasted into the
// roster, so containment counts as a match.
func (p *pool) byShareToken(token string) *poolEntry {
	for _, entry := range p.all {
		if entry.consumed || entry.shareToken == "" {
			continue
		}
		if strings.Contains(entry.shareToken, token) {
			return entry
		}
	}
	return nil
}

// inWindow returns unconsumed entries whose start time lies within the
// window of the reference time, closest first.
func (p *pool) inWindow(ref time.Time, window time.Duration) []*poolEntry {
	var out []*poolEntry
	for _, entry := range p.all {
		if entry.consumed {
			continue
		}
		if absDuration(entry.rec.StartTime.Sub(ref)) <= window {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return absDuration(out[i].rec.StartTime.Sub(ref)) < absDuration(out[j].rec.StartTime.Sub(ref))
	})
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Resolve matches every catalog record against the canonical set, one result
// per record in input order. A canonical recording is consumed by at most
// one catalog record (greedy, in catalog order).
func Resolve(records []catalog.Record, canonical []Recording, policy Policy) []MatchResult {
	policy = policy.normalized()
	p := newPool(canonical)
	results := make([]MatchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, resolveOne(rec, p, policy))
	}
	return results
}

func resolveOne(rec catalog.Record, p *pool, policy Policy) MatchResult {
	result := MatchResult{Record: rec, Confidence: ConfidenceNone}

	// Share token first: it identifies one recording directly, without
	// needing a timestamp at all.
	if rec.ShareToken != "" {
		if entry := p.byShareToken(rec.ShareToken); entry != nil {
			entry.consumed = true
			result.MatchedUUID = entry.rec.UUID
			result.Confidence = ConfidenceExact
			result.Candidates = []Recording{entry.rec}
			result.Reason = "share token match"
			return result
		}
	}

	if rec.Date.IsZero() {
		result.Err = fmt.Errorf("row %d: no usable timestamp", rec.Row)
		result.Reason = "malformed input"
		return result
	}

	candidates := p.inWindow(rec.Date, policy.Window)
	for _, entry := range candidates {
		result.Candidates = append(result.Candidates, entry.rec)
	}
	if len(candidates) == 0 {
		result.Reason = fmt.Sprintf("no canonical recording within %s", policy.Window)
		return result
	}

	winner, tied := pickWinner(rec, candidates, policy)
	if winner == nil {
		result.Confidence = ConfidenceAmbiguous
		result.Candidates = result.Candidates[:0]
		for _, entry := range tied {
			result.Candidates = append(result.Candidates, entry.rec)
		}
		result.Reason = fmt.Sprintf("%d candidates tied after all tie-breaks", len(tied))
		return result
	}

	winner.consumed = true
	result.MatchedUUID = winner.rec.UUID
	if winner.rec.SecondaryID != "" &&
		winner.rec.SecondaryID == rec.SecondaryID &&
		absDuration(winner.rec.StartTime.Sub(rec.Date)) <= policy.StrictWindow &&
		soleStrictCandidate(winner, candidates, rec, policy) {
		result.Confidence = ConfidenceExact
		result.Candidates = []Recording{winner.rec}
		result.Reason = "unique secondary-id match inside strict window"
	} else {
		result.Confidence = ConfidenceTimeWindow
		result.Reason = "matched by time window"
	}
	return result
}

// soleStrictCandidate reports whether the winner is the only candidate with
// equal secondary ID inside the strict window; EXACT requires uniqueness at
// that tightest level.
func soleStrictCandidate(winner *poolEntry, candidates []*poolEntry, rec catalog.Record, policy Policy) bool {
	for _, entry := range candidates {
		if entry == winner {
			continue
		}
		if entry.rec.SecondaryID == winner.rec.SecondaryID &&
			absDuration(entry.rec.StartTime.Sub(rec.Date)) <= policy.StrictWindow {
			return false
		}
	}
	return true
}

// pickWinner applies the tie-break chain: secondary-id equality, then
// closest start time, then topic similarity. Returns nil plus the surviving
// tie set when no single candidate remains.
func pickWinner(rec catalog.Record, candidates []*poolEntry, policy Policy) (*poolEntry, []*poolEntry) {
	remaining := candidates

	if rec.SecondaryID != "" {
		var matched []*poolEntry
		for _, entry := range remaining {
			if entry.rec.SecondaryID == rec.SecondaryID {
				matched = append(matched, entry)
			}
		}
		if len(matched) > 0 {
			remaining = matched
		}
	}
	if len(remaining) == 1 {
		return remaining[0], nil
	}

	// Closest start time. Candidates arrive closest-first, so keep the ties
	// at the front.
	closest := absDuration(remaining[0].rec.StartTime.Sub(rec.Date))
	var nearest []*poolEntry
	for _, entry := range remaining {
		if absDuration(entry.rec.StartTime.Sub(rec.Date)) == closest {
			nearest = append(nearest, entry)
		}
	}
	remaining = nearest
	if len(remaining) == 1 {
		return remaining[0], nil
	}

	// Topic similarity, requiring a clear best above the threshold.
	reference := rec.Topic
	if reference == "" {
		reference = rec.VideoName
	}
	if reference != "" {
		var best *poolEntry
		bestScore := policy.TopicSimilarityThreshold
		tiedBest := false
		for _, entry := range remaining {
			score := textutil.TopicSimilarity(reference, entry.rec.Topic)
			if math.Abs(score-bestScore) < 1e-9 && best != nil {
				tiedBest = true
				continue
			}
			if score > bestScore {
				best = entry
				bestScore = score
				tiedBest = false
			}
		}
		if best != nil && !tiedBest {
			return best, nil
		}
	}
	return nil, remaining
}
