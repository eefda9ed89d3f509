package broker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSubscribe(t *testing.T) {
	b := New[int](4)
	ch := b.Subscribe("events")

	assert.True(t, b.Publish("events", 1))
	assert.True(t, b.Publish("events", 2))

	assert.Equal(t, 1, <-ch)
	assert.Equal(t, 2, <-ch)
}

func TestPublishBeforeSubscribeIsBuffered(t *testing.T) {
	b := New[string](1)
	assert.True(t, b.Publish("t", "hello"))
	assert.Equal(t, "hello", <-b.Subscribe("t"))
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New[int](1)
	assert.True(t, b.Publish("t", 1))
	assert.False(t, b.Publish("t", 2))
}

func TestCloseTopic(t *testing.T) {
	b := New[int](1)
	ch := b.Subscribe("t")
	b.CloseTopic("t")

	_, ok := <-ch
	assert.False(t, ok)
	assert.True(t, b.Publish("t", 3))
}

func TestConcurrentPublish(t *testing.T) {
	b := New[int](1000)
	ch := b.Subscribe("t")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish("t", i*50+j)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, ch, 500)
}
