package collection

// Cursor walks a map's restaurants one at a time. Moving past either end
// wraps around.
type Cursor struct {
	restaurants []Restaurant
	index       int
}

// NewCursor creates a cursor positioned on the first restaurant
func NewCursor(restaurants []Restaurant) *Cursor {
	return &Cursor{restaurants: restaurants}
}

// Len returns the number of restaurants
func (c *Cursor) Len() int {
	return len(c.restaurants)
}

// Index returns the current position, or -1 when empty
func (c *Cursor) Index() int {
	if len(c.restaurants) == 0 {
		return -1
	}
	return c.index
}

// Current returns the selected restaurant
func (c *Cursor) Current() (Restaurant, bool) {
	if len(c.restaurants) == 0 {
		return Restaurant{}, false
	}
	return c.restaurants[c.index], true
}

// Next advances and returns the new selection
func (c *Cursor) Next() (Restaurant, bool) {
	if len(c.restaurants) == 0 {
		return Restaurant{}, false
	}
	c.index = (c.index + 1) % len(c.restaurants)
	return c.restaurants[c.index], true
}

// Prev steps back and returns the new selection
func (c *Cursor) Prev() (Restaurant, bool) {
	if len(c.restaurants) == 0 {
		return Restaurant{}, false
	}
	c.index = (c.index - 1 + len(c.restaurants)) % len(c.restaurants)
	return c.restaurants[c.index], true
}

// Select jumps to i. Out-of-range indexes are ignored.
func (c *Cursor) Select(i int) (Restaurant, bool) {
	if i < 0 || i >= len(c.restaurants) {
		return Restaurant{}, false
	}
	c.index = i
	return c.restaurants[i], true
}
