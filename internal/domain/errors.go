package domain

import "errors"

var ErrFetchFailed = errors.New("unable to fetch users")
