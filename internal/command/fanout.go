package command

import "context"

// GetAnyReplica races GET against the master plus every replica index up
// to numReplicas, returning the first successful response and cancelling
// the rest (supplemental feature #3: a concrete use of the cancellation
// model across concurrent attempts, beyond the single-attempt case §4.6
// otherwise covers).
func (r *Runner) GetAnyReplica(ctx context.Context, docID DocumentID, numReplicas int, opts Options) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type attemptResult struct {
		res Result
		err error
	}
	resultsCh := make(chan attemptResult, numReplicas+1)

	launch := func(replicaIdx int) {
		o := opts
		o.ReplicaIdx = replicaIdx
		go func() {
			var res Result
			var err error
			if replicaIdx == 0 {
				res, err = r.Get(ctx, docID, o)
			} else {
				res, err = r.GetReplica(ctx, docID, o)
			}
			select {
			case resultsCh <- attemptResult{res, err}:
			case <-ctx.Done():
			}
		}()
	}

	launch(0)
	for i := 1; i <= numReplicas; i++ {
		launch(i)
	}

	var lastErr error
	for i := 0; i <= numReplicas; i++ {
		select {
		case ar := <-resultsCh:
			if ar.err == nil {
				return ar.res, nil
			}
			lastErr = ar.err
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return Result{}, lastErr
}
