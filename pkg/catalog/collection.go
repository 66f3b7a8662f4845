package catalog

// Collection holds the session's item set and its view projection. Items are
// append-only; an id is only ever added once. The Item and its Entry share
// identity so overlay mutations hit both through the same call.
type Collection struct {
	items   []*Item
	entries []*Entry
	byId    map[string]int
	byUrl   map[string]int
}

func NewCollection() *Collection {
	return &Collection{
		items:   make([]*Item, 0),
		entries: make([]*Entry, 0),
		byId:    make(map[string]int),
		byUrl:   make(map[string]int),
	}
}

func (c *Collection) Len() int {
	return len(c.items)
}

// Append adds new items, skipping ids already present, and returns the count
// actually added. Each appended Item gets its projection Entry in the same
// position.
func (c *Collection) Append(items []*Item) int {
	added := 0
	for _, item := range items {
		if item.Id == "" {
			item.Id = IdFromUrl(item.Url)
		}
		if _, ok := c.byId[item.Id]; ok {
			continue
		}
		c.byId[item.Id] = len(c.items)
		if item.Url != "" {
			c.byUrl[item.Url] = len(c.items)
		}
		c.items = append(c.items, item)
		c.entries = append(c.entries, MakeEntry(item))
		added++
	}
	return added
}

func (c *Collection) Get(id string) (*Item, bool) {
	i, ok := c.byId[id]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

func (c *Collection) GetByUrl(url string) (*Item, bool) {
	i, ok := c.byUrl[url]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

func (c *Collection) Entry(id string) (*Entry, bool) {
	i, ok := c.byId[id]
	if !ok {
		return nil, false
	}
	return c.entries[i], true
}

func (c *Collection) Items() []*Item {
	return c.items
}

func (c *Collection) Entries() []*Entry {
	return c.entries
}

// SetStock flips the stock attribute in place, for feed messages marking a
// drop stale. Returns false when the id is unknown.
func (c *Collection) SetStock(id string, inStock bool) bool {
	i, ok := c.byId[id]
	if !ok {
		return false
	}
	c.items[i].InStock = inStock
	c.entries[i].InStock = inStock
	return true
}

// SetTried updates the overlay flag on both the Item and its Entry.
func (c *Collection) SetTried(id string, tried bool) {
	if i, ok := c.byId[id]; ok {
		c.items[i].Tried = tried
		c.entries[i].Tried = tried
	}
}

// SetPurchased updates the overlay flag on both the Item and its Entry.
func (c *Collection) SetPurchased(id string, purchased bool) {
	if i, ok := c.byId[id]; ok {
		c.items[i].Purchased = purchased
		c.entries[i].Purchased = purchased
	}
}

// Overlay recomputes every overlay flag from set membership by url. This is
// the reconcile primitive: the sets are the source of truth, the flags are a
// cache of membership.
func (c *Collection) Overlay(tried, purchased map[string]struct{}) {
	for i, item := range c.items {
		_, isTried := tried[item.Url]
		_, isPurchased := purchased[item.Url]
		item.Tried = isTried
		item.Purchased = isPurchased
		c.entries[i].Tried = isTried
		c.entries[i].Purchased = isPurchased
	}
}
