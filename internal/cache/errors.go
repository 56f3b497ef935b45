package cache

import "errors"

var errBuildAborted = errors.New("cache: build panicked")
