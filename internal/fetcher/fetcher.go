package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Fetcher defines the interface for talking to a remote listing endpoint.
type Fetcher interface {
	// PostForm submits a form-encoded POST and returns the response body.
	// Extra headers are applied on top of the fetcher's defaults. A non-2xx
	// response is returned as a *StatusError.
	PostForm(ctx context.Context, rawURL string, form url.Values, header http.Header) (io.ReadCloser, error)
}
