// Package pipeio moves bytes between two endpoints in both directions
// until one side closes, and exposes stdio as one such endpoint.
package pipeio

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Pipe copies bytes between rwc1 and rwc2 in both directions. It returns
// when either side fails or ctx is cancelled; both sides are closed exactly
// once on the way out. Errors are reported through logfunc since either
// direction may fail independently.
func Pipe(ctx context.Context, rwc1 io.ReadWriteCloser, rwc2 io.ReadWriteCloser, logfunc func(error)) {
	var wg sync.WaitGroup
	var once sync.Once

	shutdown := func() {
		rwc1.Close()
		rwc2.Close()

		wg.Done()
	}
	wg.Add(1)

	stop := context.AfterFunc(ctx, func() {
		once.Do(shutdown)
	})
	defer stop()

	go func() {
		if _, err := io.Copy(rwc1, rwc2); err != nil {
			logfunc(fmt.Errorf("io.Copy(rwc1, rwc2): %s", err))
		}

		once.Do(shutdown)
	}()

	go func() {
		if _, err := io.Copy(rwc2, rwc1); err != nil {
			logfunc(fmt.Errorf("io.Copy(rwc2, rwc1): %s", err))
		}

		once.Do(shutdown)
	}()

	wg.Wait()
}
