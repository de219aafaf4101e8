package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTagConfig marks missing or malformed configuration. Raised before any worker starts.
	ErrTagConfig = goerr.NewTag("configuration")

	// ErrTagTransport marks network or non-success HTTP failures of a page fetch
	ErrTagTransport = goerr.NewTag("transport")

	// ErrTagProtocol marks an error payload embedded in a successful response
	ErrTagProtocol = goerr.NewTag("protocol")
)
