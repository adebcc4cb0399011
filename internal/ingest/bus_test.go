package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
)

func newTestBusConsumer(out chan event.Event) *BusConsumer {
	return NewBusConsumer([]string{"127.0.0.1:9092"}, "sentiment-engine", "events", out, zerolog.Nop())
}

func TestBusHandleNewsEnvelope(t *testing.T) {
	out := make(chan event.Event, 1)
	bus := newTestBusConsumer(out)

	bus.handle(context.Background(), []byte(`{"kind":"news","source":"collector","payload":{"id":"n-1","headline":"Fed holds rates steady"}}`))

	select {
	case ev := <-out:
		news, ok := ev.(*event.NewsEvent)
		if !ok {
			t.Fatalf("expected NewsEvent, got %T", ev)
		}
		if news.ArticleID != "n-1" || news.Source != "collector" {
			t.Fatalf("unexpected event %+v", news)
		}
	default:
		t.Fatal("expected an event")
	}
}

func TestBusHandleSocialEnvelope(t *testing.T) {
	out := make(chan event.Event, 1)
	bus := newTestBusConsumer(out)

	bus.handle(context.Background(), []byte(`{"kind":"social","source":"collector","payload":{"id":"p-1","title":"calls on SPY","score":12}}`))

	select {
	case ev := <-out:
		post, ok := ev.(*event.SocialEvent)
		if !ok {
			t.Fatalf("expected SocialEvent, got %T", ev)
		}
		if post.PostID != "p-1" || post.Likes != 12 {
			t.Fatalf("unexpected event %+v", post)
		}
	default:
		t.Fatal("expected an event")
	}
}

func TestBusHandleSkipsBadMessages(t *testing.T) {
	cases := map[string]string{
		"unknown kind": `{"kind":"tick","source":"collector","payload":{"id":"1"}}`,
		"missing id":   `{"kind":"news","source":"collector","payload":{"headline":"no id"}}`,
		"not json":     `{{{`,
		"empty":        ``,
	}
	for name, msg := range cases {
		out := make(chan event.Event, 1)
		bus := newTestBusConsumer(out)
		bus.handle(context.Background(), []byte(msg))
		select {
		case ev := <-out:
			t.Fatalf("%s: unexpected event %v", name, ev)
		default:
		}
	}
}
