package messaging

import (
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BindFeedQueue declares an exclusive queue for this browser instance and
// binds it to the named feed topic. Every instance gets its own copy of the
// feed, so two open sessions both see new drops.
func BindFeedQueue(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// consumeFeed drains deliveries until the channel closes. A message the
// handler rejects is logged and dropped without requeue; the feed keeps
// flowing, since one malformed scrape must not stall live updates.
func consumeFeed(topic ChangeTopic, msgs <-chan amqp.Delivery, handle func(amqp.Delivery) error) {
	for d := range msgs {
		if err := handle(d); err != nil {
			log.Printf("Dropping %s message: %v", topic, err)
			d.Nack(false, false)
			continue
		}
		d.Ack(false)
	}
}

func ListenToTopic(ch *amqp.Channel, prefix string, topic ChangeTopic, handle func(amqp.Delivery) error) error {
	msgs, err := BindFeedQueue(ch, prefix, topic)
	if err != nil {
		return err
	}
	go func() {
		defer ch.Close()
		consumeFeed(topic, msgs, handle)
	}()
	return nil
}
