package messaging

import "github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"

type ChangeTopic string

const (
	DropsUpserted ChangeTopic = "drops_upserted"
	DropsStale    ChangeTopic = "drops_stale"
	UserActivity  ChangeTopic = "user_activity"
)

// RabbitConfig wires the feed the companion scraper publishes to.
type RabbitConfig struct {
	Url   string
	VHost string
}

// StockNotice marks drops the scraper no longer sees on a roaster's page.
type StockNotice struct {
	Id      string `json:"id"`
	Url     string `json:"url,omitempty"`
	InStock bool   `json:"in_stock"`
}

// DropBatch is one scrape run's worth of upserted drops.
type DropBatch struct {
	Items []*catalog.Item `json:"items"`
}

// ActivityEvent is a user action published for downstream consumers.
type ActivityEvent struct {
	Uid    string `json:"uid"`
	Kind   string `json:"kind"`
	ItemId string `json:"item_id"`
	Marked bool   `json:"marked"`
}
