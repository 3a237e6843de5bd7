package shared

import "fmt"

var (
	// Collaborator boundary errors. These abort a run.
	ErrRetrieval = fmt.Errorf("playlist retrieval failed")
	ErrSink      = fmt.Errorf("playlist write failed")
	ErrLocked    = fmt.Errorf("another run holds the lock")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrInvalidRule   = fmt.Errorf("invalid rule")

	// Persistence errors
	ErrDigestStore  = fmt.Errorf("digest store failure")
	ErrRunNotFound  = fmt.Errorf("run not found")
	ErrInvalidModel = fmt.Errorf("invalid model")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
