package resolve

import (
	"testing"
	"time"

	"scribe/internal/catalog"
)

func at(h, m int) time.Time {
	return time.Date(2024, 9, 8, h, m, 0, 0, time.UTC)
}

func TestResolveExactUniqueCandidates(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Date: at(10, 0), SecondaryID: "111"},
		{Row: 3, VideoName: "Week 2", Date: at(14, 0), SecondaryID: "222"},
	}
	canonical := []Recording{
		{UUID: "uuid-a", SecondaryID: "111", StartTime: at(10, 1)},
		{UUID: "uuid-b", SecondaryID: "222", StartTime: at(13, 59)},
	}
	results := Resolve(records, canonical, Policy{})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, want := range []string{"uuid-a", "uuid-b"} {
		if results[i].Confidence != ConfidenceExact {
			t.Errorf("result %d confidence = %s", i, results[i].Confidence)
		}
		if results[i].MatchedUUID != want {
			t.Errorf("result %d uuid = %s, want %s", i, results[i].MatchedUUID, want)
		}
		if len(results[i].Candidates) != 1 {
			t.Errorf("exact result %d has %d candidates", i, len(results[i].Candidates))
		}
	}
}

func TestResolveShareTokenWinsOverWindow(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Date: at(10, 0), ShareToken: "abc123"},
	}
	canonical := []Recording{
		// Closer in time but carries a different share token.
		{UUID: "uuid-near", StartTime: at(10, 1), ShareURL: "https://example.zoom.us/rec/share/zzz999?pwd=x"},
		// The cataloged token is a prefix of the full link token.
		{UUID: "uuid-token", StartTime: at(10, 9), ShareURL: "https://example.zoom.us/rec/share/abc123def456?pwd=x"},
	}
	results := Resolve(records, canonical, Policy{})
	res := results[0]
	if res.Confidence != ConfidenceExact {
		t.Fatalf("confidence = %s, want EXACT", res.Confidence)
	}
	if res.MatchedUUID != "uuid-token" {
		t.Errorf("uuid = %s, want uuid-token", res.MatchedUUID)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].UUID != "uuid-token" {
		t.Errorf("candidates = %+v", res.Candidates)
	}
}

func TestResolveShareTokenWithoutTimestamp(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", ShareToken: "tok777"},
	}
	canonical := []Recording{
		{UUID: "uuid-a", StartTime: at(10, 0), ShareURL: "https://example.zoom.us/rec/share/tok777"},
	}
	results := Resolve(records, canonical, Policy{})
	res := results[0]
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Confidence != ConfidenceExact || res.MatchedUUID != "uuid-a" {
		t.Fatalf("got %s / %s", res.Confidence, res.MatchedUUID)
	}
}

func TestResolveAmbiguousSharedSecondaryID(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Date: at(10, 0), SecondaryID: "111"},
	}
	canonical := []Recording{
		{UUID: "uuid-a", SecondaryID: "111", StartTime: at(10, 5)},
		{UUID: "uuid-b", SecondaryID: "111", StartTime: at(9, 55)},
	}
	results := Resolve(records, canonical, Policy{})
	res := results[0]
	if res.Confidence != ConfidenceAmbiguous {
		t.Fatalf("confidence = %s, want AMBIGUOUS", res.Confidence)
	}
	if res.MatchedUUID != "" {
		t.Errorf("ambiguous result must not pick a uuid, got %s", res.MatchedUUID)
	}
	if len(res.Candidates) != 2 {
		t.Errorf("expected both candidates retained, got %d", len(res.Candidates))
	}
}

func TestResolveTopicSimilarityBreaksTie(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Topic: "Surah Al-Kahf discussion", Date: at(10, 0), SecondaryID: "111"},
	}
	canonical := []Recording{
		{UUID: "uuid-a", SecondaryID: "111", Topic: "Surah Al-Kahf discussion class", StartTime: at(10, 5)},
		{UUID: "uuid-b", SecondaryID: "111", Topic: "Board planning meeting", StartTime: at(9, 55)},
	}
	results := Resolve(records, canonical, Policy{})
	res := results[0]
	if res.MatchedUUID != "uuid-a" {
		t.Fatalf("topic tie-break failed: %+v", res)
	}
	if res.Confidence != ConfidenceTimeWindow {
		t.Errorf("confidence = %s, want TIME_WINDOW", res.Confidence)
	}
}

func TestResolveNoneOutsideWindow(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Date: at(10, 0)},
	}
	canonical := []Recording{
		{UUID: "uuid-a", StartTime: at(12, 0)},
	}
	results := Resolve(records, canonical, Policy{})
	res := results[0]
	if res.Confidence != ConfidenceNone {
		t.Fatalf("confidence = %s, want NONE", res.Confidence)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("NONE must carry no candidates, got %d", len(res.Candidates))
	}
}

func TestResolveGreedyConsumption(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Date: at(10, 0), SecondaryID: "111"},
		{Row: 3, VideoName: "Week 1 duplicate", Date: at(10, 0), SecondaryID: "111"},
	}
	canonical := []Recording{
		{UUID: "uuid-a", SecondaryID: "111", StartTime: at(10, 0)},
	}
	results := Resolve(records, canonical, Policy{})
	if results[0].MatchedUUID != "uuid-a" {
		t.Fatalf("first record should consume the recording: %+v", results[0])
	}
	if results[1].Confidence != ConfidenceNone {
		t.Errorf("second record should find nothing left, got %s with uuid %q",
			results[1].Confidence, results[1].MatchedUUID)
	}
}

func TestResolveTimeWindowWithoutSecondaryID(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Date: at(10, 0)},
	}
	canonical := []Recording{
		{UUID: "uuid-a", SecondaryID: "111", StartTime: at(10, 1)},
	}
	results := Resolve(records, canonical, Policy{})
	res := results[0]
	if res.MatchedUUID != "uuid-a" {
		t.Fatalf("expected match, got %+v", res)
	}
	if res.Confidence != ConfidenceTimeWindow {
		t.Errorf("confidence = %s, want TIME_WINDOW without a secondary id", res.Confidence)
	}
}

func TestResolveMalformedRecord(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Broken"},
		{Row: 3, VideoName: "Good", Date: at(10, 0), SecondaryID: "111"},
	}
	canonical := []Recording{
		{UUID: "uuid-a", SecondaryID: "111", StartTime: at(10, 0)},
	}
	results := Resolve(records, canonical, Policy{})
	if results[0].Err == nil {
		t.Fatal("expected per-record error for missing timestamp")
	}
	if results[1].MatchedUUID != "uuid-a" {
		t.Errorf("batch should continue past malformed record: %+v", results[1])
	}
}

func TestResolveDeterministicCandidateOrder(t *testing.T) {
	records := []catalog.Record{
		{Row: 2, VideoName: "Week 1", Date: at(10, 0)},
	}
	canonical := []Recording{
		{UUID: "far", StartTime: at(10, 10)},
		{UUID: "near", StartTime: at(10, 2)},
	}
	for i := 0; i < 3; i++ {
		results := Resolve(records, canonical, Policy{})
		cands := results[0].Candidates
		if len(cands) != 2 || cands[0].UUID != "near" || cands[1].UUID != "far" {
			t.Fatalf("candidates not ordered closest-first: %+v", cands)
		}
	}
}
