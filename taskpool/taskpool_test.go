package taskpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testLoopNum = 1024
const sleepTime = time.Nanosecond * 10

func TestMixedPool(t *testing.T) {
	p := NewMixedPool(4, 2, 16)

	var done int32
	wg := sync.WaitGroup{}
	wg.Add(testLoopNum)
	for i := 0; i < testLoopNum; i++ {
		err := p.Go(func() {
			defer wg.Done()
			time.Sleep(sleepTime)
			atomic.AddInt32(&done, 1)
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	if done != testLoopNum {
		t.Fatalf("%v tasks done", done)
	}

	p.Stop()
	if err := p.Go(func() {}); err != ErrStopped {
		t.Fatalf("Go after Stop: %v", err)
	}
}

func TestMixedPoolRecover(t *testing.T) {
	p := NewMixedPool(0, 1, 1)
	defer p.Stop()

	wg := sync.WaitGroup{}
	wg.Add(1)
	p.Go(func() { panic("test") })
	p.Go(func() { wg.Done() })
	wg.Wait()
}

func BenchmarkMixedPoolGo(b *testing.B) {
	p := NewMixedPool(32, 32, 512)
	defer p.Stop()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		wg := sync.WaitGroup{}
		wg.Add(testLoopNum)
		for j := 0; j < testLoopNum; j++ {
			p.Go(func() {
				if sleepTime > 0 {
					time.Sleep(sleepTime)
				}
				wg.Done()
			})
		}
		wg.Wait()
	}
}
