package types

// Category represents a grouping label that entries may reference.
type Category struct {
	CategoryID  int64  `json:"category_id"` // Assigned by the store on creation; monotonic, never reused.
	Description string `json:"description"` // Human-readable label (required, non-empty).
}

// Validate checks the category's intrinsic fields.
// Returns ErrInvalidDescription if Description is empty.
func (c *Category) Validate() error {
	if c.Description == "" {
		return ErrInvalidDescription
	}
	return nil
}
