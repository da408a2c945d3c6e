package todolist

import "github.com/idilsaglam/tada/internal/model"

// Collection is the in-memory copy of what is currently displayed:
// records in server order, indexed by id.
type Collection struct {
	order []int64
	byID  map[int64]model.Todo
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byID: map[int64]model.Todo{}}
}

// Reset replaces the contents with todos, keeping their order.
// A later duplicate id replaces the earlier record in place.
func (c *Collection) Reset(todos []model.Todo) {
	c.order = c.order[:0]
	c.byID = make(map[int64]model.Todo, len(todos))
	for _, t := range todos {
		c.Append(t)
	}
}

// Append adds t at the end and returns its index.
// If the id is already present the record is replaced where it is.
func (c *Collection) Append(t model.Todo) int {
	if _, ok := c.byID[t.ID]; ok {
		c.byID[t.ID] = t
		return c.IndexOf(t.ID)
	}
	c.byID[t.ID] = t
	c.order = append(c.order, t.ID)
	return len(c.order) - 1
}

// Get returns the record with the given id.
func (c *Collection) Get(id int64) (model.Todo, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// IndexOf returns the display position of id, or -1.
func (c *Collection) IndexOf(id int64) int {
	for i, v := range c.order {
		if v == id {
			return i
		}
	}
	return -1
}

// SetCompleted sets the completed flag of id and returns its index, or -1
// when the id is not displayed.
func (c *Collection) SetCompleted(id int64, completed bool) int {
	t, ok := c.byID[id]
	if !ok {
		return -1
	}
	t.Completed = completed
	c.byID[id] = t
	return c.IndexOf(id)
}

// Remove drops id and returns the index it had, or -1.
func (c *Collection) Remove(id int64) int {
	i := c.IndexOf(id)
	if i < 0 {
		return -1
	}
	delete(c.byID, id)
	c.order = append(c.order[:i], c.order[i+1:]...)
	return i
}

// Len returns the number of displayed records.
func (c *Collection) Len() int { return len(c.order) }

// Items returns the records in display order.
func (c *Collection) Items() []model.Todo {
	out := make([]model.Todo, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Stats counts done and pending records.
func (c *Collection) Stats() (done, pending int) {
	for _, t := range c.byID {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
