package event

import (
	"context"
	"testing"
)

func TestPublishMatchesPattern(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	var got []string
	b.Subscribe("signal.*", func(ctx context.Context, ev Event) {
		got = append(got, ev.Topic)
	})

	b.Publish(ctx, "signal.loaded", nil)
	b.Publish(ctx, "filetype.go", nil)
	b.Publish(ctx, "signal.synced", nil)

	if len(got) != 2 || got[0] != "signal.loaded" || got[1] != "signal.synced" {
		t.Errorf("delivered topics = %v, want [signal.loaded signal.synced]", got)
	}
}

func TestPublishOrder(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	var order []int
	for i := 0; i < 4; i++ {
		i := i
		b.Subscribe("t", func(ctx context.Context, ev Event) {
			order = append(order, i)
		})
	}

	b.Publish(ctx, "t", nil)

	for i, v := range order {
		if v != i {
			t.Fatalf("handlers ran out of order: %v", order)
		}
	}
}

func TestOnce(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	calls := 0
	b.Subscribe("t", func(ctx context.Context, ev Event) {
		calls++
	}, Once())

	b.Publish(ctx, "t", nil)
	b.Publish(ctx, "t", nil)

	if calls != 1 {
		t.Errorf("one-shot handler ran %d times, want 1", calls)
	}
	if b.Len() != 0 {
		t.Errorf("bus has %d active subscriptions after one-shot fired, want 0", b.Len())
	}
}

func TestOnceReentrantPublish(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	calls := 0
	b.Subscribe("t", func(ctx context.Context, ev Event) {
		calls++
		if calls == 1 {
			// Re-publish from inside the handler; the one-shot must already
			// be disarmed.
			b.Publish(ctx, "t", nil)
		}
	}, Once())

	b.Publish(ctx, "t", nil)

	if calls != 1 {
		t.Errorf("re-entrant publish fired one-shot %d times, want 1", calls)
	}
}

func TestFilterKeepsOnceArmed(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	calls := 0
	b.Subscribe("t", func(ctx context.Context, ev Event) {
		calls++
	}, Once(), WithFilter(func(ev Event) bool {
		s, _ := ev.Data.(string)
		return s == "yes"
	}))

	b.Publish(ctx, "t", "no")
	b.Publish(ctx, "t", "no")
	b.Publish(ctx, "t", "yes")
	b.Publish(ctx, "t", "yes")

	if calls != 1 {
		t.Errorf("filtered one-shot ran %d times, want 1", calls)
	}
}

func TestCancel(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	calls := 0
	sub := b.Subscribe("t", func(ctx context.Context, ev Event) {
		calls++
	})
	sub.Cancel()

	b.Publish(ctx, "t", nil)

	if calls != 0 {
		t.Errorf("cancelled subscription ran %d times, want 0", calls)
	}
	if sub.Active() {
		t.Error("subscription still active after Cancel")
	}
}

func TestSubscribeDuringPublish(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	lateCalls := 0
	b.Subscribe("t", func(ctx context.Context, ev Event) {
		b.Subscribe("t", func(ctx context.Context, ev Event) {
			lateCalls++
		})
	}, Once())

	b.Publish(ctx, "t", nil)
	if lateCalls != 0 {
		t.Error("subscription added during delivery saw the in-flight event")
	}

	b.Publish(ctx, "t", nil)
	if lateCalls != 1 {
		t.Errorf("late subscription ran %d times on the next event, want 1", lateCalls)
	}
}
