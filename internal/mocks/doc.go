// Package mocks provides hand-written implementations of the service
// interfaces for handler and middleware tests.
//
// Each mock exposes one function field per method. Unset functions fall back
// to the mock's default fields, and calls are recorded so tests can assert
// that a collaborator was, or was not, reached:
//
//	svc := &mocks.MockTaskService{Err: service.ErrTaskNotFound}
//	// exercise the handler...
//	assert.Equal(t, 0, svc.Calls("List"))
package mocks
