package containers

// Container abstracts the sequential storage behind a BlockingQueue.
// Implementations are NOT thread-safe; BlockingQueue serializes all access.
type Container[T any] interface {
	// Push inserts elem.
	Push(elem T)
	// Pop removes the front element. It must not be called on an empty container.
	Pop()
	// Front returns the front element. It must not be called on an empty container.
	Front() T
	Empty() bool
	Len() int
}
