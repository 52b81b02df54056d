package service

// Invalidator marks a post's comment list as stale for readers.
type Invalidator interface {
	Invalidate(postID string)
}

// Invalidators fans one invalidation out to every member.
type Invalidators []Invalidator

// Invalidate implements Invalidator.
func (is Invalidators) Invalidate(postID string) {
	for _, inv := range is {
		if inv != nil {
			inv.Invalidate(postID)
		}
	}
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(postID string)

// Invalidate implements Invalidator.
func (f InvalidatorFunc) Invalidate(postID string) { f(postID) }
