package board_test

import (
	"context"
	"testing"
	"time"

	"github.com/CrowderSoup/taskboard/board"
)

func TestComputeCountdown(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want string
	}{
		{"truncates to minutes", now.Add(23*time.Hour + 59*time.Minute + 59*time.Second), "0d 23h 59m"},
		{"whole day", now.Add(24 * time.Hour), "1d 0h 0m"},
		{"several days", now.Add(3*24*time.Hour + 4*time.Hour + 5*time.Minute + 30*time.Second), "3d 4h 5m"},
		{"under a minute", now.Add(59 * time.Second), "0d 0h 0m"},
		{"one second ago", now.Add(-time.Second), board.ExpiredLabel},
		{"exactly now", now, board.ExpiredLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := board.ComputeCountdown(tt.due, now).String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDatetime(t *testing.T) {
	for _, s := range []string{"2026-03-14T09:30", "2026-03-14T09:30:15", "2026-03-14T09:30:15.250"} {
		if _, err := board.ParseDatetime(s, time.UTC); err != nil {
			t.Errorf("ParseDatetime(%q) failed: %v", s, err)
		}
	}
	if _, err := board.ParseDatetime("tomorrow", time.UTC); err == nil {
		t.Error("expected an error for an unparseable datetime")
	}
}

func TestRecomputeCountdowns(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b, _ := newTestBoard(t, store)
	task, err := b.Create(ctx, "Alpha", "2026-03-15T09:29:59", "Low")
	if err != nil {
		t.Fatal(err)
	}
	bad, err := b.Create(ctx, "Beta", "soon", "Low")
	if err != nil {
		t.Fatal(err)
	}
	saves := store.saves
	before := b.Records()

	b.RecomputeCountdowns(testNow)
	got, _ := b.Task(task.ID)
	if got.Countdown.String() != "0d 23h 59m" {
		t.Errorf("countdown = %q", got.Countdown.String())
	}

	b.RecomputeCountdowns(testNow.Add(24 * time.Hour))
	got, _ = b.Task(task.ID)
	if !got.Countdown.Expired {
		t.Errorf("expected expired countdown, got %q", got.Countdown.String())
	}

	unparsed, _ := b.Task(bad.ID)
	if unparsed.Countdown.String() != "" {
		t.Errorf("expected empty label for an unparseable datetime, got %q", unparsed.Countdown.String())
	}

	if store.saves != saves {
		t.Error("recomputing countdowns must not save")
	}
	if after := b.Records(); len(after) != len(before) {
		t.Error("recomputing countdowns changed the board")
	}
}
