package mint

import (
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"

	"github.com/fedibtc/minimint/module/signature"
)

// Signer computes this node's signature shares, spreading the messages of a
// request over a pool of workers.
type Signer struct {
	key  *signature.SecretKeyShare
	pool *workerpool.WorkerPool
}

func NewSigner(key *signature.SecretKeyShare, workers uint) *Signer {
	if workers == 0 {
		workers = 1
	}
	return &Signer{
		key:  key,
		pool: workerpool.New(int(workers)),
	}
}

// SignAll returns one signature share per message, in message order.
func (s *Signer) SignAll(messages [][]byte) ([][]byte, error) {
	shares := make([][]byte, len(messages))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs *multierror.Error
	)
	wg.Add(len(messages))
	for i, msg := range messages {
		i, msg := i, msg
		s.pool.Submit(func() {
			defer wg.Done()
			share, err := s.key.Sign(msg)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("could not sign message %d: %w", i, err))
				mu.Unlock()
				return
			}
			shares[i] = share
		})
	}
	wg.Wait()

	err := errs.ErrorOrNil()
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// Stop waits for queued signing work and releases the workers.
func (s *Signer) Stop() {
	s.pool.StopWait()
}
