package messaging

import (
	"testing"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/browser"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common/jsoncompat"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/identity"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/store"
	amqp "github.com/rabbitmq/amqp091-go"
)

func newTestFeed(t *testing.T) (*DropFeed, *int) {
	t.Helper()
	ms := store.NewMemoryStore()
	app := browser.New(browser.Options{
		CatalogStore: ms,
		StateStore:   ms,
		Provider:     identity.NewMock(),
		PageSize:     10,
	})
	applied := 0
	feed := NewDropFeed(RabbitConfig{})
	feed.OnApplied = func() { applied++ }
	feed.app = app
	return feed, &applied
}

func upsertBody(t *testing.T, items ...*catalog.Item) []byte {
	t.Helper()
	body, err := jsoncompat.Marshal(DropBatch{Items: items})
	if err != nil {
		t.Fatalf("Failed to marshal batch: %v", err)
	}
	return body
}

func TestFeedUpsertsInvalidateRender(t *testing.T) {
	feed, applied := newTestFeed(t)
	body := upsertBody(t, &catalog.Item{
		Id:       "drop-001",
		Title:    "Chelbesa",
		Roaster:  "Sey",
		Url:      "https://sey.example/chelbesa",
		LastSeen: "2025-08-15 10:00:00+0000",
		InStock:  true,
	})
	if err := feed.handleUpserts(amqp.Delivery{Body: body}); err != nil {
		t.Fatalf("Failed to handle upsert: %v", err)
	}
	if *applied != 1 {
		t.Errorf("Expected 1 invalidation, got %d", *applied)
	}
	if _, ok := feed.app.Catalog.Get("drop-001"); !ok {
		t.Errorf("Expected drop-001 in the catalog after upsert")
	}
}

func TestFeedStaleInvalidatesOnlyKnownDrops(t *testing.T) {
	feed, applied := newTestFeed(t)
	body := upsertBody(t, &catalog.Item{
		Id:       "drop-001",
		Title:    "Chelbesa",
		Roaster:  "Sey",
		Url:      "https://sey.example/chelbesa",
		LastSeen: "2025-08-15 10:00:00+0000",
		InStock:  true,
	})
	if err := feed.handleUpserts(amqp.Delivery{Body: body}); err != nil {
		t.Fatalf("Failed to handle upsert: %v", err)
	}
	*applied = 0

	notice, err := jsoncompat.Marshal(StockNotice{Id: "drop-001", InStock: false})
	if err != nil {
		t.Fatalf("Failed to marshal notice: %v", err)
	}
	if err := feed.handleStale(amqp.Delivery{Body: notice}); err != nil {
		t.Fatalf("Failed to handle notice: %v", err)
	}
	if *applied != 1 {
		t.Errorf("Expected 1 invalidation, got %d", *applied)
	}
	if item, ok := feed.app.Catalog.Get("drop-001"); !ok || item.InStock {
		t.Errorf("Expected drop-001 out of stock, got %+v", item)
	}

	unknown, err := jsoncompat.Marshal(StockNotice{Id: "drop-999", InStock: false})
	if err != nil {
		t.Fatalf("Failed to marshal notice: %v", err)
	}
	if err := feed.handleStale(amqp.Delivery{Body: unknown}); err != nil {
		t.Fatalf("Failed to handle notice: %v", err)
	}
	if *applied != 1 {
		t.Errorf("Expected no invalidation for an unknown drop, got %d", *applied)
	}
}

func TestFeedRejectsMalformedBody(t *testing.T) {
	feed, applied := newTestFeed(t)
	if err := feed.handleUpserts(amqp.Delivery{Body: []byte("not json")}); err == nil {
		t.Errorf("Expected an error for a malformed batch")
	}
	if err := feed.handleStale(amqp.Delivery{Body: []byte("not json")}); err == nil {
		t.Errorf("Expected an error for a malformed notice")
	}
	if *applied != 0 {
		t.Errorf("Expected no invalidations, got %d", *applied)
	}
}
