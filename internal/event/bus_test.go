package event

import "testing"

func TestBus_PublishSyncDeliversToSubscriber(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var got UnreadChangedData
	called := false
	unsubscribe := b.Subscribe(UnreadChanged, func(ev Event) {
		called = true
		got = ev.Data.(UnreadChangedData)
	})
	defer unsubscribe()

	b.PublishSync(Event{Type: UnreadChanged, Data: UnreadChangedData{Session: "kai:aabb1122", Count: 2, Preview: "hi"}})

	if !called {
		t.Fatal("expected subscriber to be called")
	}
	if got.Count != 2 || got.Session != "kai:aabb1122" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	defer b.Close()

	calls := 0
	unsubscribe := b.Subscribe(UnreadChanged, func(Event) { calls++ })
	unsubscribe()

	b.PublishSync(Event{Type: UnreadChanged, Data: UnreadChangedData{}})

	if calls != 0 {
		t.Errorf("expected 0 calls after unsubscribe, got %d", calls)
	}
}

func TestBus_ClosedBusDropsEvents(t *testing.T) {
	b := NewBus()
	calls := 0
	b.Subscribe(UnreadChanged, func(Event) { calls++ })
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b.PublishSync(Event{Type: UnreadChanged, Data: UnreadChangedData{}})
	if calls != 0 {
		t.Errorf("expected 0 calls after close, got %d", calls)
	}
}
