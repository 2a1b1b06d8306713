package mint

import (
	"context"
	"sync"
)

// Submission is a client request travelling through the intake queue, together
// with a one-shot channel on which the consumer reports acceptance or rejection.
type Submission struct {
	Request *ClientRequest
	once    sync.Once
	result  chan error
}

// NewSubmission wraps a client request for the intake queue.
func NewSubmission(req *ClientRequest) *Submission {
	return &Submission{
		Request: req,
		result:  make(chan error, 1),
	}
}

// Accept reports that the request was buffered.
func (s *Submission) Accept() {
	s.resolve(nil)
}

// Reject reports that the request was refused. Only the first resolution counts.
func (s *Submission) Reject(err error) {
	s.resolve(err)
}

func (s *Submission) resolve(err error) {
	s.once.Do(func() {
		s.result <- err
	})
}

// Result blocks until the submission is resolved or the context is done.
func (s *Submission) Result(ctx context.Context) error {
	select {
	case err := <-s.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
