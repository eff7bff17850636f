package background

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func randInt() int {
	sign := rand.Intn(100)
	value := rand.Intn(math.MaxInt32)
	if sign < 50 {
		return -value
	}
	return value
}

func producer(s *Scope, id string, data chan<- int) {
	defer s.Done()
	for {
		select {
		case data <- randInt():
		case <-s.Context().Done():
			fmt.Println(id, "done")
			return
		}
	}
}

func consumer(s *Scope, id string, data <-chan int) {
	defer s.Done()
	for {
		select {
		case _, ok := <-data:
			if !ok {
				fmt.Println(id, "exited on closed data channel")
				return
			}
		case <-s.Context().Done():
			fmt.Println(id, "done")
			return
		}
	}
}

func ExampleScope() {
	data1, data2, data3 := make(chan int), make(chan int), make(chan int)

	write1, cancelWrite1 := NewScope()
	read1, cancelRead1 := NewScope()
	write2, cancelWrite2 := NewScope()
	read3, cancelRead3 := NewScope()

	write1.Add(1)
	go producer(write1, "DATA-1 *PRODUCER*", data1)
	read1.Add(1)
	go consumer(read1, "DATA-1 *CONSUMER*", data1)

	write2.Add(1)
	go producer(write2, "DATA-2 *PRODUCER*", data2) // blocked due to no consumer for data2

	read3.Add(1)
	go consumer(read3, "DATA-3 *CONSUMER*", data3) // blocked due to no producer for data3

	time.Sleep(50 * time.Millisecond)

	// Cancel all background scopes in desired order:
	cancelWrite2()
	cancelRead3()
	cancelWrite1()
	cancelRead1()

	// Output:
	//
	// DATA-2 *PRODUCER* done
	// DATA-3 *CONSUMER* done
	// DATA-1 *PRODUCER* done
	// DATA-1 *CONSUMER* done
}

func ExampleScope_severalMembers() {
	data := make(chan int)

	scope, cancel := NewScope()

	scope.Add(3)
	go producer(scope, "*PRODUCER-1*", data)
	go producer(scope, "*PRODUCER-2*", data)
	go producer(scope, "*PRODUCER-3*", data)

	time.Sleep(50 * time.Millisecond)

	cancel()

	// Unordered output:
	//
	// *PRODUCER-1* done
	// *PRODUCER-2* done
	// *PRODUCER-3* done
}

func ExampleScope_expiredOrActive() {
	scope1, cancel1 := NewScope()
	defer cancel1()
	scope2, cancel2 := NewScope()
	cancel2()
	// expired condition is: err != nil, if false than scope is in active state
	fmt.Println(scope1.Context().Err() != nil, scope2.Context().Err() != nil)
	// active condition is: err == nil, if false than scope is in expired state
	fmt.Println(scope1.Context().Err() == nil, scope2.Context().Err() == nil)

	// Output:
	// false true
	// true false
}

func ExampleScope_Go() {
	scope, cancel := NewScope()

	data := make(chan int)
	for _, id := range []string{"*WORKER-1*", "*WORKER-2*"} {
		scope.Go(func(ctx context.Context) {
			<-ctx.Done()
			fmt.Println(id, "done")
		})
	}
	scope.Go(func(ctx context.Context) {
		select {
		case data <- 1:
		case <-ctx.Done():
		}
	})
	fmt.Println("received", <-data)

	cancel()

	// Unordered output:
	//
	// received 1
	// *WORKER-1* done
	// *WORKER-2* done
}

func TestScope_CancelAndWait(test *testing.T) {
	scope, _ := NewScope()
	release := make(chan struct{})
	scope.Go(func(ctx context.Context) {
		<-ctx.Done()
		<-release
	})

	scope.Cancel()
	require.Error(test, scope.Context().Err())

	done := scope.Wait()
	select {
	case <-done:
		test.Fatal("scope is done while member is still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		test.Fatal("scope is not done in time")
	}
}

func TestScope_Wait_SameChannel(test *testing.T) {
	scope, _ := NewScope()
	release := make(chan struct{})
	scope.Go(func(_ context.Context) {
		<-release
	})

	// abandoned waits do not pile up waiting goroutines
	first := scope.Wait()
	for i := 0; i < 10; i++ {
		require.Equal(test, first, scope.Wait())
	}

	close(release)
	select {
	case <-first:
	case <-time.After(time.Second):
		test.Fatal("scope is not done in time")
	}
	// already done scope is reported at once
	<-scope.Wait()
}
