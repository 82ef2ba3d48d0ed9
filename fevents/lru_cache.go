package fevents

import "container/list"

// lruCache is a fixed-capacity set of strings used to decide whether a
// user key has been seen recently enough that another index event would
// be redundant. add reports whether the value was already present, and
// re-adding an existing value refreshes its recency. A zero-capacity
// cache treats every value as new, matching the "no deduplication"
// configuration.
type lruCache struct {
	capacity int
	list     *list.List
	items    map[string]*list.Element
}

func newLruCache(capacity int) lruCache {
	return lruCache{
		capacity: capacity,
		list:     list.New(),
		items:    make(map[string]*list.Element),
	}
}

// add records value as seen and returns true if it was already known.
func (c *lruCache) add(value string) bool {
	if c.capacity <= 0 {
		return false
	}
	if el, ok := c.items[value]; ok {
		c.list.MoveToFront(el)
		return true
	}
	el := c.list.PushFront(value)
	c.items[value] = el
	if c.list.Len() > c.capacity {
		oldest := c.list.Back()
		if oldest != nil {
			c.list.Remove(oldest)
			delete(c.items, oldest.Value.(string))
		}
	}
	return false
}

// clear empties the cache, so that every key is treated as new again.
func (c *lruCache) clear() {
	c.list.Init()
	c.items = make(map[string]*list.Element)
}
