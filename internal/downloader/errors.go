package downloader

import (
	"errors"
	"fmt"
)

var ErrRemoteFetchFailed = errors.New("remote fetch failed")

const (
	OpLastUpdateTime = "fetch last update time"
	OpFullPayload    = "fetch full payload"
)

// RemoteFetchFailedError reports a remote call that failed for good: the
// retry filter declined the error or attempts ran out.
type RemoteFetchFailedError struct {
	Key string
	Op  string
	Err error
}

func (e *RemoteFetchFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Key, e.Op, e.Err)
}

func (e *RemoteFetchFailedError) Unwrap() error { return e.Err }

func (e *RemoteFetchFailedError) Is(target error) bool { return target == ErrRemoteFetchFailed }
