package pkg

import "fmt"

type ErrDBProcedure struct {
	Cause string
	Info  string
	Err   error
}

func (e ErrDBProcedure) Error() string {
	return fmt.Sprintf("%s; got error: %s; info: %s", e.Cause, e.Err, e.Info)
}

func (e ErrDBProcedure) Unwrap() error {
	return e.Err
}

// ErrRequestFailed describes a failed call to the production API.
type ErrRequestFailed struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *ErrRequestFailed) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Err)
}

func (e *ErrRequestFailed) Unwrap() error {
	return e.Err
}
