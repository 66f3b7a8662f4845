package messaging

import (
	"log"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/browser"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common/jsoncompat"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/store"
	amqp "github.com/rabbitmq/amqp091-go"
)

const feedPrefix = "coffee"

// DropFeed consumes the scraper's drop feed and folds every message into the
// session, so freshly scraped drops appear without a reload. OnApplied fires
// after a message changed the session, so cached renders can be dropped.
type DropFeed struct {
	RabbitConfig
	OnApplied func()

	app        *browser.App
	connection *amqp.Connection
}

func NewDropFeed(cfg RabbitConfig) *DropFeed {
	return &DropFeed{RabbitConfig: cfg}
}

func (f *DropFeed) applied() {
	if f.OnApplied != nil {
		f.OnApplied()
	}
}

func (f *DropFeed) handleUpserts(d amqp.Delivery) error {
	var batch DropBatch
	if err := jsoncompat.Unmarshal(d.Body, &batch); err != nil {
		return err
	}
	added := f.app.ApplyUpserts(batch.Items)
	log.Printf("Drop feed: %d upserted, %d new", len(batch.Items), added)
	f.applied()
	return nil
}

func (f *DropFeed) handleStale(d amqp.Delivery) error {
	var notice StockNotice
	if err := jsoncompat.Unmarshal(d.Body, &notice); err != nil {
		return err
	}
	if f.app.ApplyStock(notice.Id, notice.InStock) {
		f.applied()
	}
	return nil
}

// Connect subscribes to the upsert and staleness topics and dispatches into
// the app.
func (f *DropFeed) Connect(app *browser.App) error {
	f.app = app
	conn, err := amqp.DialConfig(f.Url, amqp.Config{
		Vhost:      f.VHost,
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return err
	}
	f.connection = conn

	upsertCh, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := ListenToTopic(upsertCh, feedPrefix, DropsUpserted, f.handleUpserts); err != nil {
		return err
	}

	staleCh, err := conn.Channel()
	if err != nil {
		return err
	}
	return ListenToTopic(staleCh, feedPrefix, DropsStale, f.handleStale)
}

func (f *DropFeed) Close() error {
	if f.connection == nil {
		return nil
	}
	return f.connection.Close()
}

// ActivityPublisher pushes toggle events onto the activity topic. Implements
// browser.Activity; events are batched through a background queue and every
// publish is best effort.
type ActivityPublisher struct {
	connection *amqp.Connection
	queue      *common.QueueHandler[ActivityEvent]
}

func NewActivityPublisher(cfg RabbitConfig) (*ActivityPublisher, error) {
	conn, err := amqp.DialConfig(cfg.Url, amqp.Config{
		Vhost:      cfg.VHost,
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	if err := DefineTopic(ch, feedPrefix, UserActivity); err != nil {
		return nil, err
	}
	p := &ActivityPublisher{connection: conn}
	p.queue = common.NewQueueHandler(p.publish, 64)
	return p, nil
}

func (p *ActivityPublisher) publish(events []ActivityEvent) {
	if err := SendChange(p.connection, feedPrefix, UserActivity, events); err != nil {
		log.Printf("Failed to publish %d activity events: %v", len(events), err)
	}
}

func (p *ActivityPublisher) DropMarked(uid string, kind store.StateKind, itemId string, marked bool) {
	p.queue.Add(ActivityEvent{
		Uid:    uid,
		Kind:   string(kind),
		ItemId: itemId,
		Marked: marked,
	})
}

func (p *ActivityPublisher) Close() error {
	return p.connection.Close()
}
