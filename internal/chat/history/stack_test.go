package history

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStack_InvalidMax(test *testing.T) {
	for _, max := range []int{0, -1} {
		_, err := NewStack(max)
		assert.Error(test, err, "max=%d", max)
	}
}

func TestStack(test *testing.T) {
	s, err := NewStack(2)
	require.NoError(test, err)
	assert.Equal(test, []string{}, s.Tail(2))

	s.Push("1")
	s.Push("2")
	s.Push("3")
	assert.Equal(test, 2, s.Len())

	assert.Equal(test, []string{}, s.Tail(0))
	assert.Equal(test, []string{"3"}, s.Tail(1))
	assert.Equal(test, []string{"2", "3"}, s.Tail(2))
	assert.Equal(test, []string{"2", "3"}, s.Tail(-2))
	assert.Equal(test, []string{"2", "3"}, s.Tail(100))
}

func TestStack_TailIsCopy(test *testing.T) {
	s, err := NewStack(3)
	require.NoError(test, err)
	s.Push("a")
	tail := s.Tail(1)
	tail[0] = "changed"
	assert.Equal(test, []string{"a"}, s.Tail(1))
}

func TestStack_ConcurrentPush(test *testing.T) {
	s, err := NewStack(10)
	require.NoError(test, err)

	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Push(strconv.Itoa(i))
		}(i)
	}
	wg.Wait()
	assert.Equal(test, 10, s.Len())
	assert.Len(test, s.Tail(10), 10)
}
