package http

import (
	"encoding/json"
	"testing"

	"github.com/dishdash/dishdash/internal/core/domain"
)

func TestLiveHub_BroadcastFiltersByViewport(t *testing.T) {
	hub := NewLiveHub(1024)
	bilbao := hub.register()
	madrid := hub.register()
	idle := hub.register()
	defer func() {
		hub.unregister(bilbao)
		hub.unregister(madrid)
		hub.unregister(idle)
	}()

	hub.handle(bilbao, []byte(`{"action":"viewport","lat":43.263,"lon":-2.935,"zoom":15}`))
	hub.handle(madrid, []byte(`{"action":"viewport","lat":40.4168,"lon":-3.7038,"zoom":15}`))

	hub.Broadcast(&domain.Post{ID: "r1", Location: domain.GeoPoint{Lat: 43.2635, Lon: -2.9345}})

	if len(bilbao.send) != 1 {
		t.Fatalf("expected 1 event for the Bilbao client, got %d", len(bilbao.send))
	}
	if len(madrid.send) != 0 || len(idle.send) != 0 {
		t.Errorf("expected no events outside the viewport, got madrid=%d idle=%d", len(madrid.send), len(idle.send))
	}

	var ev struct {
		Type string      `json:"type"`
		Post domain.Post `json:"post"`
	}
	if err := json.Unmarshal(<-bilbao.send, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "post.created" || ev.Post.ID != "r1" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestLiveHub_SlowClientDropsEvents(t *testing.T) {
	hub := NewLiveHub(1024)
	c := hub.register()
	defer hub.unregister(c)
	hub.handle(c, []byte(`{"action":"viewport","lat":43.263,"lon":-2.935,"zoom":12}`))

	post := &domain.Post{ID: "r1", Location: domain.GeoPoint{Lat: 43.263, Lon: -2.935}}
	for i := 0; i < liveBuffer+5; i++ {
		hub.Broadcast(post)
	}
	if len(c.send) != liveBuffer {
		t.Errorf("expected queue capped at %d, got %d", liveBuffer, len(c.send))
	}
}

func TestLiveHub_Handle(t *testing.T) {
	hub := NewLiveHub(1024)
	c := hub.register()
	defer hub.unregister(c)

	reply, _ := json.Marshal(hub.handle(c, []byte(`{"action":"viewport","lat":43.263,"lon":-2.935,"zoom":15}`)))
	var watching struct {
		Status string             `json:"status"`
		BBox   domain.BoundingBox `json:"bbox"`
	}
	json.Unmarshal(reply, &watching)
	if watching.Status != "watching" || !watching.BBox.Contains(domain.GeoPoint{Lat: 43.263, Lon: -2.935}) {
		t.Errorf("unexpected reply %s", reply)
	}

	cases := map[string]string{
		"not json":     `{`,
		"bad zoom":     `{"action":"viewport","lat":43.2,"lon":-2.9,"zoom":30}`,
		"polar":        `{"action":"viewport","lat":89.9,"lon":0,"zoom":10}`,
		"unknown verb": `{"action":"subscribe"}`,
	}
	for name, msg := range cases {
		r, ok := hub.handle(c, []byte(msg)).(map[string]string)
		if !ok || r["error"] == "" {
			t.Errorf("%s: expected an error reply, got %v", name, r)
		}
	}

	if r := hub.handle(c, []byte(`{"action":"clear"}`)).(map[string]string); r["status"] != "cleared" {
		t.Errorf("expected cleared, got %v", r)
	}
	if c.watching(domain.GeoPoint{Lat: 43.263, Lon: -2.935}) {
		t.Error("expected no viewport after clear")
	}
	if hub.Clients() != 1 {
		t.Errorf("expected 1 client, got %d", hub.Clients())
	}
}
