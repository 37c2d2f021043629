package errors

import "errors"

var (
	ErrBadConfig         = errors.New("config: invalid config")
	ErrBadPattern        = errors.New("convention: invalid tag pattern")
	ErrNonConforming     = errors.New("tag: does not match convention")
	ErrNegativeKeepCount = errors.New("retention: negative keep count")
	ErrPolicyNotFound    = errors.New("retention: no policy matches repository")
	ErrRepoNotFound      = errors.New("repository: not found")
)
