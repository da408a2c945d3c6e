package model

// Todo is one record of the remote todo service.
// The id is assigned by the server and never computed locally.
type Todo struct {
	ID        int64  `json:"id"`
	Task      string `json:"task" validate:"required"`
	Completed bool   `json:"completed"`
}

// NewTodo is the body of a create request; the server fills in the rest.
type NewTodo struct {
	Task string `json:"task" validate:"required"`
}

// Toggled returns a copy of t with the completion flag inverted.
func (t Todo) Toggled() Todo {
	t.Completed = !t.Completed
	return t
}
