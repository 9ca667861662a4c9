package itinerary

import "errors"

var (
	ErrUnknownStop        = errors.New("unknown stop")
	ErrMissingDeparture   = errors.New("missing departure")
	ErrMissingDestination = errors.New("missing destination")
	ErrUnsupportedIntent  = errors.New("unsupported intent")
	ErrInvalidLeadTime    = errors.New("invalid lead time")
)
