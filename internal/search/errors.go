package search

import "errors"

var ErrUnknownCategory = errors.New("unknown category")
