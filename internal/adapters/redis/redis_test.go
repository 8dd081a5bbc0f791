package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "kemdeholo/internal/adapters/redis"
	"kemdeholo/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(redisad.NewClient(mr.Addr(), "", 0))
	ctx := context.Background()

	var miss []domain.Room
	ok, err := c.Get(ctx, "rooms:all", &miss)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := []domain.Room{{ID: 1, Type: "Suite"}, {ID: 2, Type: "Case traditionnelle"}}
	if err := c.Set(ctx, "rooms:all", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL(redisad.DefaultPrefix + "rooms:all"); ttl != 60*time.Second {
		t.Fatalf("ttl = %v", ttl)
	}

	var got []domain.Room
	ok, err = c.Get(ctx, "rooms:all", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1].Type != "Case traditionnelle" {
		t.Fatalf("unexpected rooms: %+v", got)
	}

	if err := c.Del(ctx, "rooms:all"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists(redisad.DefaultPrefix + "rooms:all") {
		t.Fatalf("key still present after Del")
	}
}

func TestCache_KeysAreNamespaced(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(redisad.NewClient(mr.Addr(), "", 0), redisad.WithPrefix("test:"))
	ctx := context.Background()

	if err := c.Set(ctx, "articles:all", []domain.Article{{ID: 1}}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := mr.Keys(); len(got) != 1 || got[0] != "test:articles:all" {
		t.Fatalf("keys = %v", got)
	}
}

func TestCache_NonPositiveTTLIsNotStored(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(redisad.NewClient(mr.Addr(), "", 0))
	ctx := context.Background()

	for _, ttl := range []int{0, -5} {
		if err := c.Set(ctx, "rooms:all", []domain.Room{{ID: 1}}, ttl); err != nil {
			t.Fatalf("set ttl=%d: %v", ttl, err)
		}
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("entries stored without expiry: %v", keys)
	}
}

func TestCache_UndecodableEntryIsAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(redisad.NewClient(mr.Addr(), "", 0))
	ctx := context.Background()

	if err := mr.Set(c.Key("rooms:all"), `{"not":"a list"`); err != nil {
		t.Fatal(err)
	}
	var got []domain.Room
	ok, err := c.Get(ctx, "rooms:all", &got)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if mr.Exists(c.Key("rooms:all")) {
		t.Fatalf("undecodable entry kept")
	}
}

func TestSignals_PublishReachesSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisad.NewClient(mr.Addr(), "", 0)
	sig := redisad.NewSignals(client, "refreshAdminData")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := sig.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	at := time.UnixMilli(1760000000000).UTC()
	if err := sig.Publish(ctx, domain.NewSignal(domain.EventSubscribers, at)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.Event != domain.EventSubscribers || !got.At.Equal(at) {
			t.Fatalf("unexpected signal: %+v", got)
		}
	case <-ctx.Done():
		t.Fatalf("no signal received")
	}

	latest, err := sig.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != "subscribers_1760000000000" {
		t.Fatalf("latest marker = %q", latest)
	}
}
