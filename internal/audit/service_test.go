package audit

import (
	"context"
	"testing"
	"time"
)

func TestRecordMatch_FillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo)
	s.clock = func() time.Time { return time.Unix(1750000000, 0) }

	err := s.RecordMatch(context.Background(), MatchEvent{
		LeadID:     "lead-1",
		CallID:     "call-1",
		MatchType:  MatchTypePhoneTime,
		Confidence: 95,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	if !events[0].MatchedAt.Equal(time.Unix(1750000000, 0).UTC()) {
		t.Fatalf("unexpected matched_at %v", events[0].MatchedAt)
	}
}

func TestRecordMatch_RejectsInvalid(t *testing.T) {
	s := NewService(NewMemoryRepo())

	cases := []MatchEvent{
		{CallID: "c", MatchType: MatchTypePhoneTime, Confidence: 95},
		{LeadID: "l", MatchType: MatchTypePhoneTime, Confidence: 95},
		{LeadID: "l", CallID: "c", Confidence: 95},
		{LeadID: "l", CallID: "c", MatchType: MatchTypePhoneTime, Confidence: 101},
	}
	for i, e := range cases {
		if err := s.RecordMatch(context.Background(), e); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
