package driver

import (
	"fmt"
)

// Job is a unit of background work.
type Job func() error

// SingleFlight holds at most one outstanding background job. A new job is only
// launched after the previous one has returned, so jobs never overlap and run
// in submission order. It is meant to be driven from a single goroutine.
type SingleFlight struct {
	done chan struct{}
	err  error
}

// NewSingleFlight returns an empty handle.
func NewSingleFlight() *SingleFlight {
	return &SingleFlight{}
}

// Replace waits for the outstanding job, if any, and then launches the given
// job in the background. If the outstanding job failed or panicked, its error
// is returned and the new job is not launched.
func (s *SingleFlight) Replace(job Job) error {
	err := s.Wait()
	if err != nil {
		return err
	}

	done := make(chan struct{})
	s.done = done
	s.err = nil
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.err = fmt.Errorf("background job panicked: %v", r)
			}
		}()
		s.err = job()
	}()
	return nil
}

// Wait blocks until the outstanding job returned and yields its error. The
// handle is empty afterwards.
func (s *SingleFlight) Wait() error {
	if s.done == nil {
		return nil
	}
	<-s.done
	err := s.err
	s.done = nil
	s.err = nil
	return err
}

// InFlight returns true if a job is running.
func (s *SingleFlight) InFlight() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
