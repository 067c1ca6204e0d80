package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pontoon/cmd/internal/game"
)

func testRecord(i int) Record {
	return Record{
		GameID:       fmt.Sprintf("01J0000000000000000000%04d", i),
		FinishedAt:   time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
		DealerPoints: 19,
		Winner:       "a@test",
		HighestScore: 20,
		Players: []game.PlayerResult{
			{Email: "a@test", Points: 20, CardsCount: 3, Outcome: game.OutcomeWon},
		},
	}
}

func TestMemoryStoreSaveAndList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Save(ctx, testRecord(i)); err != nil {
			t.Fatalf("Save(%d): %v", i, err)
		}
	}

	recs, err := s.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	// Newest first.
	if recs[0].GameID != testRecord(4).GameID || recs[2].GameID != testRecord(2).GameID {
		t.Fatalf("unexpected order: %s .. %s", recs[0].GameID, recs[2].GameID)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Save(context.Background(), Record{}); err != ErrInvalidInput {
		t.Fatalf("Save without game id: got %v, want ErrInvalidInput", err)
	}

	recs, err := s.ListRecent(context.Background(), 0)
	if err != nil || len(recs) != 0 {
		t.Fatalf("ListRecent on empty store: %v %v", recs, err)
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < memMaxRecords+10; i++ {
		rec := testRecord(0)
		rec.GameID = fmt.Sprintf("g%d", i)
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	recs, err := s.ListRecent(ctx, 200)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if recs[0].GameID != fmt.Sprintf("g%d", memMaxRecords+9) {
		t.Fatalf("newest record = %s", recs[0].GameID)
	}

	s.mu.Lock()
	held := len(s.recs)
	s.mu.Unlock()
	if held != memMaxRecords {
		t.Fatalf("store holds %d records, want cap %d", held, memMaxRecords)
	}
}
