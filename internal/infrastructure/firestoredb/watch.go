package firestoredb

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketsync/internal/domain/repository"
	"marketsync/pkg/logger"
)

// WatchQuery streams snapshots of q to fn on its own goroutine until the
// returned Stop is called or ctx ends. A listener error is delivered once and
// ends the stream. fn must not call Stop itself.
func WatchQuery(ctx context.Context, q firestore.Query, resource string, fn func(*firestore.QuerySnapshot, error)) repository.Subscription {
	ctx, cancel := context.WithCancel(ctx)
	it := q.Snapshots(ctx)
	return run(ctx, cancel, resource, it.Stop, func() error {
		snap, err := it.Next()
		if err != nil {
			return err
		}
		fn(snap, nil)
		return nil
	}, func(err error) { fn(nil, err) })
}

// WatchDocument is WatchQuery for a single document. Missing documents are
// delivered as snapshots whose Exists reports false.
func WatchDocument(ctx context.Context, doc *firestore.DocumentRef, resource string, fn func(*firestore.DocumentSnapshot, error)) repository.Subscription {
	ctx, cancel := context.WithCancel(ctx)
	it := doc.Snapshots(ctx)
	return run(ctx, cancel, resource, it.Stop, func() error {
		snap, err := it.Next()
		if err != nil && !IsNotFound(err) {
			return err
		}
		fn(snap, nil)
		return nil
	}, func(err error) { fn(nil, err) })
}

func run(ctx context.Context, cancel context.CancelFunc, resource string, stopIter func(), next func() error, fail func(error)) repository.Subscription {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stopIter()
		for {
			err := next()
			if err == nil {
				continue
			}
			if ctx.Err() != nil || err == iterator.Done || status.Code(err) == codes.Canceled {
				return
			}
			logger.Warn("listener failed", "resource", resource, "error", err)
			fail(Translate(err, resource))
			return
		}
	}()

	var once sync.Once
	return repository.StopFunc(func() {
		once.Do(func() {
			cancel()
			<-done
		})
	})
}
