// Package gzippedhttp provides the gzip middlewares of the API: request
// bodies sent with Content-Encoding gzip are inflated before the validators
// read them, and JSON or HTML responses are compressed for clients that
// accept gzip.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todolist/internal/logger"
	"github.com/patric-chuzhbe/todolist/internal/respond"
)

const messageInvalidRequest = "Your request was invalid."

// compressedTypes are the response content types worth compressing.
var compressedTypes = []string{
	"application/json",
	"text/html",
	"text/css",
	"text/javascript",
	"application/javascript",
}

// CompressedReader wraps an io.ReadCloser and decompresses its input using gzip.
type CompressedReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

// NewCompressedReader returns a CompressedReader over the gzip stream in body.
func NewCompressedReader(body io.ReadCloser) (*CompressedReader, error) {
	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return &CompressedReader{
		r:  body,
		zr: zr,
	}, nil
}

func (c *CompressedReader) Read(p []byte) (n int, err error) {
	return c.zr.Read(p)
}

// Close closes both the gzip reader and the underlying body.
func (c *CompressedReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

// DecompressRequest replaces a gzip encoded request body with its inflated
// content. A body that is not valid gzip is rejected as an invalid request.
func DecompressRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		contentEncoding := request.Header.Get("Content-Encoding")
		if !strings.Contains(strings.ToLower(contentEncoding), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		body, err := NewCompressedReader(request.Body)
		if err != nil {
			logger.Log.Debugln("Error calling the `NewCompressedReader()`: ", zap.Error(err))
			respond.Message(response, http.StatusBadRequest, messageInvalidRequest)
			return
		}
		defer body.Close()

		request.Body = body
		request.Header.Del("Content-Encoding")
		request.ContentLength = -1

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// CompressResponse compresses JSON, HTML and static asset responses for
// clients sending Accept-Encoding gzip.
func CompressResponse(h http.Handler) http.Handler {
	return chimiddleware.Compress(gzip.BestSpeed, compressedTypes...)(h)
}
