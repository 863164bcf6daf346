package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/eldtechnologies/webhookd/internal/models"
)

type storeFactory func(t *testing.T) MessageStore

func strPtr(s string) *string {
	return &s
}

func newMessage(id, from, ts string, text *string) models.Message {
	return models.Message{
		MessageID:  id,
		FromNumber: from,
		ToNumber:   "+14155550100",
		Timestamp:  ts,
		Text:       text,
	}
}

func mustInsert(t *testing.T, s MessageStore, msg models.Message) {
	t.Helper()
	outcome, err := s.InsertMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("insert %q: %v", msg.MessageID, err)
	}
	if outcome != Inserted {
		t.Fatalf("insert %q: expected inserted, got %s", msg.MessageID, outcome)
	}
}

func mustList(t *testing.T, s MessageStore, f models.MessageFilter) ([]models.Message, int) {
	t.Helper()
	items, total, err := s.ListMessages(context.Background(), f)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(items) > total {
		t.Fatalf("page of %d items exceeds total %d", len(items), total)
	}
	return items, total
}

func ids(items []models.Message) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.MessageID
	}
	return out
}

func assertIDs(t *testing.T, got []models.Message, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, gotIDs)
		}
	}
}

func runMessageStoreSuite(t *testing.T, newStore storeFactory) {
	t.Run("InsertIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := newMessage("m1", "+15550000001", "2025-01-01T00:00:00Z", strPtr("hi"))
		mustInsert(t, s, first)

		before, err := s.GetMessage(ctx, "m1")
		if err != nil || before == nil {
			t.Fatalf("get after insert: %v (%v)", err, before)
		}
		if before.CreatedAt == "" || before.CreatedAt[len(before.CreatedAt)-1] != 'Z' {
			t.Fatalf("expected created_at ending in Z, got %q", before.CreatedAt)
		}

		again := newMessage("m1", "+15550000009", "2030-01-01T00:00:00Z", strPtr("changed"))
		outcome, err := s.InsertMessage(ctx, again)
		if err != nil {
			t.Fatalf("duplicate insert must not error: %v", err)
		}
		if outcome != DuplicateIgnored {
			t.Fatalf("expected duplicate_ignored, got %s", outcome)
		}

		after, err := s.GetMessage(ctx, "m1")
		if err != nil || after == nil {
			t.Fatalf("get after duplicate: %v", err)
		}
		if after.FromNumber != before.FromNumber || after.ToNumber != before.ToNumber ||
			after.Timestamp != before.Timestamp || after.CreatedAt != before.CreatedAt ||
			*after.Text != *before.Text {
			t.Fatalf("duplicate changed stored record: before=%+v after=%+v", before, after)
		}

		_, total := mustList(t, s, models.MessageFilter{Limit: 10})
		if total != 1 {
			t.Fatalf("expected 1 stored row, got %d", total)
		}
	})

	t.Run("GetMissingMessage", func(t *testing.T) {
		s := newStore(t)
		msg, err := s.GetMessage(context.Background(), "nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != nil {
			t.Fatalf("expected nil, got %+v", msg)
		}
	})

	t.Run("ConcurrentInsertsOfOneIDHaveOneWinner", func(t *testing.T) {
		s := newStore(t)
		const writers = 16

		var wg sync.WaitGroup
		outcomes := make([]InsertOutcome, writers)
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				msg := newMessage("same", fmt.Sprintf("+1555000%04d", i), "2025-01-01T00:00:00Z", nil)
				outcomes[i], errs[i] = s.InsertMessage(context.Background(), msg)
			}(i)
		}
		wg.Wait()

		inserted := 0
		for i := range outcomes {
			if errs[i] != nil {
				t.Fatalf("writer %d: %v", i, errs[i])
			}
			if outcomes[i] == Inserted {
				inserted++
			}
		}
		if inserted != 1 {
			t.Fatalf("expected exactly one inserted outcome, got %d", inserted)
		}

		_, total := mustList(t, s, models.MessageFilter{Limit: 10})
		if total != 1 {
			t.Fatalf("expected 1 row, got %d", total)
		}
	})

	t.Run("ListOrdersByTimestampThenID", func(t *testing.T) {
		s := newStore(t)
		mustInsert(t, s, newMessage("c", "+1", "2025-01-02T00:00:00Z", nil))
		mustInsert(t, s, newMessage("b", "+1", "2025-01-01T00:00:00Z", nil))
		mustInsert(t, s, newMessage("a", "+1", "2025-01-02T00:00:00Z", nil))
		mustInsert(t, s, newMessage("Z", "+1", "2025-01-02T00:00:00Z", nil))
		mustInsert(t, s, newMessage("d", "+1", "2024-12-31T23:59:59Z", nil))

		items, total := mustList(t, s, models.MessageFilter{Limit: 50})
		if total != 5 {
			t.Fatalf("expected total 5, got %d", total)
		}
		assertIDs(t, items, "d", "b", "Z", "a", "c")

		for i := 1; i < len(items); i++ {
			a, b := items[i-1], items[i]
			if a.Timestamp > b.Timestamp || (a.Timestamp == b.Timestamp && a.MessageID > b.MessageID) {
				t.Fatalf("items %d and %d out of order: %+v %+v", i-1, i, a, b)
			}
		}
	})

	t.Run("ListReturnsStoredFields", func(t *testing.T) {
		s := newStore(t)
		mustInsert(t, s, models.Message{
			MessageID:  "m1",
			FromNumber: "+15550000001",
			ToNumber:   "+15550000002",
			Timestamp:  "2025-01-01T00:00:00Z",
			Text:       strPtr("hi"),
		})
		mustInsert(t, s, newMessage("m2", "+15550000001", "2025-01-01T00:00:01Z", nil))

		items, _ := mustList(t, s, models.MessageFilter{Limit: 10})
		got := items[0]
		if got.MessageID != "m1" || got.FromNumber != "+15550000001" || got.ToNumber != "+15550000002" ||
			got.Timestamp != "2025-01-01T00:00:00Z" || got.Text == nil || *got.Text != "hi" {
			t.Fatalf("unexpected item: %+v", got)
		}
		if got.CreatedAt != "" {
			t.Fatalf("list results must not carry created_at, got %q", got.CreatedAt)
		}
		if items[1].Text != nil {
			t.Fatalf("expected nil text, got %q", *items[1].Text)
		}
	})

	t.Run("Filters", func(t *testing.T) {
		s := newStore(t)
		mustInsert(t, s, newMessage("m1", "+111", "2025-01-01T00:00:00Z", strPtr("Hello world")))
		mustInsert(t, s, newMessage("m2", "+222", "2025-01-02T00:00:00Z", strPtr("hello there")))
		mustInsert(t, s, newMessage("m3", "+111", "2025-01-03T00:00:00Z", nil))
		mustInsert(t, s, newMessage("m4", "+1111", "2025-01-04T00:00:00Z", strPtr("say Hello")))
		mustInsert(t, s, newMessage("m5", "+111", "2025-01-05T00:00:00Z", strPtr("100% off_sale")))

		tests := []struct {
			name   string
			filter models.MessageFilter
			want   []string
		}{
			{"no filters", models.MessageFilter{}, []string{"m1", "m2", "m3", "m4", "m5"}},
			{"from exact", models.MessageFilter{From: "+111"}, []string{"m1", "m3", "m5"}},
			{"from no match", models.MessageFilter{From: "+999"}, nil},
			{"since inclusive", models.MessageFilter{Since: "2025-01-03T00:00:00Z"}, []string{"m3", "m4", "m5"}},
			{"since after all", models.MessageFilter{Since: "2026-01-01T00:00:00Z"}, nil},
			{"q case sensitive", models.MessageFilter{Q: "Hello"}, []string{"m1", "m4"}},
			{"q lowercase", models.MessageFilter{Q: "hello"}, []string{"m2"}},
			{"q wildcard chars are literal", models.MessageFilter{Q: "%"}, []string{"m5"}},
			{"q underscore literal", models.MessageFilter{Q: "f_s"}, []string{"m5"}},
			{"from and since", models.MessageFilter{From: "+111", Since: "2025-01-02T00:00:00Z"}, []string{"m3", "m5"}},
			{"from and q", models.MessageFilter{From: "+111", Q: "Hello"}, []string{"m1"}},
			{"all three", models.MessageFilter{From: "+1111", Since: "2025-01-04T00:00:00Z", Q: "say"}, []string{"m4"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := tt.filter
				f.Limit = 100
				items, total := mustList(t, s, f)
				if total != len(tt.want) {
					t.Fatalf("expected total %d, got %d", len(tt.want), total)
				}
				assertIDs(t, items, tt.want...)
			})
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 25; i++ {
			mustInsert(t, s, newMessage(fmt.Sprintf("m%02d", i), "+1", fmt.Sprintf("2025-01-01T00:00:%02dZ", i), nil))
		}

		var seen []string
		for offset := 0; offset < 30; offset += 10 {
			items, total := mustList(t, s, models.MessageFilter{Limit: 10, Offset: offset})
			if total != 25 {
				t.Fatalf("offset %d: total must not depend on paging, got %d", offset, total)
			}
			if len(items) > 10 {
				t.Fatalf("offset %d: page larger than limit: %d", offset, len(items))
			}
			seen = append(seen, ids(items)...)
		}
		if len(seen) != 25 {
			t.Fatalf("expected 25 items across pages, got %d", len(seen))
		}
		for i, id := range seen {
			if id != fmt.Sprintf("m%02d", i) {
				t.Fatalf("page walk out of order at %d: %v", i, seen)
			}
		}

		items, total := mustList(t, s, models.MessageFilter{Limit: 10, Offset: 100})
		if len(items) != 0 || total != 25 {
			t.Fatalf("expected empty page with total 25, got %d items total %d", len(items), total)
		}
	})

	t.Run("ListClampsOutOfRangeLimits", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 120; i++ {
			mustInsert(t, s, newMessage(fmt.Sprintf("m%03d", i), "+1", "2025-01-01T00:00:00Z", nil))
		}

		items, total := mustList(t, s, models.MessageFilter{Limit: 1000})
		if len(items) != models.MaxLimit || total != 120 {
			t.Fatalf("expected %d items of 120, got %d of %d", models.MaxLimit, len(items), total)
		}

		items, _ = mustList(t, s, models.MessageFilter{Limit: 0, Offset: -5})
		if len(items) != models.DefaultLimit {
			t.Fatalf("expected default limit %d, got %d", models.DefaultLimit, len(items))
		}
		if items[0].MessageID != "m000" {
			t.Fatalf("negative offset should clamp to 0, first id %q", items[0].MessageID)
		}
	})

	t.Run("StatsEmpty", func(t *testing.T) {
		s := newStore(t)
		stats, err := s.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.TotalMessages != 0 || stats.SendersCount != 0 {
			t.Fatalf("expected zero counts, got %+v", stats)
		}
		if stats.FirstMessageTS != nil || stats.LastMessageTS != nil {
			t.Fatalf("expected nil timestamps, got %v %v", stats.FirstMessageTS, stats.LastMessageTS)
		}
		if stats.MessagesPerSender == nil || len(stats.MessagesPerSender) != 0 {
			t.Fatalf("expected empty sender list, got %v", stats.MessagesPerSender)
		}
	})

	t.Run("StatsAggregation", func(t *testing.T) {
		s := newStore(t)
		mustInsert(t, s, newMessage("m1", "+1000", "2025-01-02T00:00:00Z", nil))
		mustInsert(t, s, newMessage("m2", "+1000", "2025-01-01T00:00:00Z", nil))
		mustInsert(t, s, newMessage("m3", "+1000", "2025-01-04T00:00:00Z", nil))
		mustInsert(t, s, newMessage("m4", "+2000", "2025-01-03T00:00:00Z", nil))

		stats, err := s.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.TotalMessages != 4 || stats.SendersCount != 2 {
			t.Fatalf("expected 4 messages from 2 senders, got %+v", stats)
		}
		if len(stats.MessagesPerSender) != 2 {
			t.Fatalf("expected 2 sender entries, got %v", stats.MessagesPerSender)
		}
		if top := stats.MessagesPerSender[0]; top.From != "+1000" || top.Count != 3 {
			t.Fatalf("expected +1000 with 3 first, got %+v", top)
		}
		if stats.FirstMessageTS == nil || *stats.FirstMessageTS != "2025-01-01T00:00:00Z" {
			t.Fatalf("unexpected first ts %v", stats.FirstMessageTS)
		}
		if stats.LastMessageTS == nil || *stats.LastMessageTS != "2025-01-04T00:00:00Z" {
			t.Fatalf("unexpected last ts %v", stats.LastMessageTS)
		}
	})

	t.Run("StatsTopTenCapAndTieBreak", func(t *testing.T) {
		s := newStore(t)
		for i := 15; i >= 1; i-- {
			mustInsert(t, s, newMessage(fmt.Sprintf("m%02d", i), fmt.Sprintf("+1555%02d", i), "2025-01-01T00:00:00Z", nil))
		}
		mustInsert(t, s, newMessage("extra", "+155515", "2025-01-01T00:00:01Z", nil))

		stats, err := s.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.SendersCount != 15 {
			t.Fatalf("expected 15 senders, got %d", stats.SendersCount)
		}
		if len(stats.MessagesPerSender) != models.TopSendersLimit {
			t.Fatalf("expected %d entries, got %d", models.TopSendersLimit, len(stats.MessagesPerSender))
		}
		if top := stats.MessagesPerSender[0]; top.From != "+155515" || top.Count != 2 {
			t.Fatalf("expected +155515 with 2 first, got %+v", top)
		}
		// remaining entries tie on count 1 and sort by number ascending
		for i := 1; i < len(stats.MessagesPerSender); i++ {
			want := fmt.Sprintf("+1555%02d", i)
			if got := stats.MessagesPerSender[i]; got.From != want || got.Count != 1 {
				t.Fatalf("entry %d: expected %s with 1, got %+v", i, want, got)
			}
		}
	})

	t.Run("HealthCheck", func(t *testing.T) {
		s := newStore(t)
		if !s.HealthCheck(context.Background()) {
			t.Fatal("expected healthy store")
		}
	})
}
