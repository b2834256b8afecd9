package containers_test

import (
	"fmt"

	"github.com/hanfei1991/blockingqueue/pkg/containers"
)

func ExampleBlockingQueue_Lock() {
	q := containers.NewBlockingQueue[string]()

	// Both items are pushed before any other goroutine can pop.
	q.Lock()
	q.Push("header")
	q.Push("body")
	fmt.Println(q.OwnsLock(), q.Len())
	q.Unlock()

	fmt.Println(q.Pop(), q.Pop())
	_, err := q.TryPop()
	fmt.Println(err != nil)
	// Output:
	// true 2
	// header body
	// true
}

func ExampleNewBlockingPriorityQueue() {
	q := containers.NewBlockingPriorityQueue(func(a, b int) bool { return a < b })
	for _, v := range []int{3, 9, 1} {
		q.Push(v)
	}
	fmt.Println(q.Pop(), q.Pop(), q.Pop())
	// Output: 9 3 1
}
