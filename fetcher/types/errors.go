package types

import (
	"net/http"

	"github.com/ansel1/merry"
)

var ErrTimeoutExceeded = merry.New("timeout while fetching Response").WithHTTPCode(http.StatusGatewayTimeout)
var ErrFailedToFetch = merry.New("failed to fetch data from server")
var ErrBackendError = merry.New("error fetching data from backend").WithHTTPCode(http.StatusServiceUnavailable)
var ErrResponseError = merry.New("error while fetching Response")
var ErrMaxTriesExceeded = merry.New("max tries exceeded")
var ErrUnsupportedClient = merry.New("unsupported http client")
var ErrNoTargets = merry.New("no targets to fetch")
