package entities

// Group is a named, user-owned bucket of vocabulary. Lessons and categories
// share this shape: a lesson is a sequential unit of study, a category a
// topical tag. A user cannot have two groups of the same kind with the same
// name, but different users may reuse names freely.
type Group struct {
	ID     int64
	UserID int64
	Name   string
}
