package helper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ansel1/merry/v2"

	"github.com/go-graphite/check-graphite/fetcher/types"
)

// maxErrorBodyLen bounds how much of an error page ends up in the status line.
const maxErrorBodyLen = 256

// RequestError classifies transport errors returned by an http client.
func RequestError(err error, server string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return merry.Wrap(types.ErrTimeoutExceeded,
			merry.WithValue("server", server),
			merry.WithCause(err),
		)
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return merry.Wrap(types.ErrBackendError,
			merry.WithValue("server", server),
			merry.WithCause(netErr),
		)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return merry.Wrap(types.ErrTimeoutExceeded,
			merry.WithValue("server", server),
			merry.WithCause(err),
		)
	}
	return merry.Wrap(types.ErrResponseError,
		merry.WithValue("server", server),
		merry.WithCause(err),
	)
}

// HttpError builds the error for a non-2xx render response.
func HttpError(code int, body []byte, server string) error {
	msg := http.StatusText(code)
	if b := strings.TrimSpace(stripHtmlTags(string(body), maxErrorBodyLen)); b != "" {
		msg = b
	}
	return merry.Wrap(types.ErrFailedToFetch,
		merry.WithValue("server", server),
		merry.WithHTTPCode(code),
		merry.WithMessagef("%s: HTTP %d: %s", types.ErrFailedToFetch.Error(), code, msg),
	)
}

// Retryable reports whether another attempt could succeed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, types.ErrTimeoutExceeded) || errors.Is(err, types.ErrBackendError) {
		return true
	}
	if errors.Is(err, types.ErrFailedToFetch) {
		return merry.HTTPCode(err) >= http.StatusInternalServerError
	}
	return false
}

func RootCause(err error) error {
	for {
		cause := merry.Cause(err)
		if cause == nil {
			return err
		}
		err = cause
	}
}

// MerryRootError strip merry error chain
func MerryRootError(err error) string {
	c := RootCause(err)
	if c == nil {
		c = err
	}
	return merryError(c)
}

// ErrorMessage returns the message of err followed by its root cause when they differ.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := merryError(err)
	root := MerryRootError(err)
	if root == "" || strings.Contains(msg, root) {
		return msg
	}
	return msg + ": " + root
}

func merryError(err error) string {
	return strings.TrimRight(err.Error(), "\n")
}
