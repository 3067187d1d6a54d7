// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package taskpool

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/lesismal/nbframe/logging"
)

// ErrStopped is returned by Go after Stop.
var ErrStopped = errors.New("taskpool: stopped")

func call(f func()) {
	defer func() {
		if err := recover(); err != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			logging.Error("taskpool call failed: %v\n%v\n", err, *(*string)(unsafe.Pointer(&buf)))
		}
	}()
	f()
}

// MixedPool runs up to nativeSize tasks on their own goroutines. Tasks
// beyond that are queued for fixedSize long-lived workers, and Go blocks
// once bufferSize tasks are waiting.
type MixedPool struct {
	mux     sync.RWMutex
	chTask  chan func()
	stopped bool

	running    int32
	nativeSize int32
	wg         sync.WaitGroup
}

func (mp *MixedPool) taskLoop() {
	defer mp.wg.Done()
	for f := range mp.chTask {
		call(f)
	}
}

// Go runs f in the pool.
func (mp *MixedPool) Go(f func()) error {
	mp.mux.RLock()
	defer mp.mux.RUnlock()
	if mp.stopped {
		return ErrStopped
	}

	if atomic.AddInt32(&mp.running, 1) <= mp.nativeSize {
		go func() {
			defer atomic.AddInt32(&mp.running, -1)
			call(f)
		}()
		return nil
	}
	atomic.AddInt32(&mp.running, -1)
	mp.chTask <- f
	return nil
}

// Running returns the number of tasks on native goroutines.
func (mp *MixedPool) Running() int {
	return int(atomic.LoadInt32(&mp.running))
}

// Stop stops accepting tasks and waits for the queued ones to finish.
// Tasks on native goroutines are not waited for.
func (mp *MixedPool) Stop() {
	mp.mux.Lock()
	if mp.stopped {
		mp.mux.Unlock()
		return
	}
	mp.stopped = true
	close(mp.chTask)
	mp.mux.Unlock()
	mp.wg.Wait()
}

// NewMixedPool .
func NewMixedPool(nativeSize int, fixedSize int, bufferSize int) *MixedPool {
	mp := &MixedPool{
		chTask:     make(chan func(), bufferSize),
		nativeSize: int32(nativeSize),
	}
	mp.wg.Add(fixedSize)
	for i := 0; i < fixedSize; i++ {
		go mp.taskLoop()
	}
	return mp
}
