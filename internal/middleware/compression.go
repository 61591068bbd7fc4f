package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes before compression
	// is applied
	MinSize int
	// Level is the gzip compression level
	Level int
	// CompressibleTypes is a list of content types that should be
	// compressed
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults for compression
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"text/html",
			"text/css",
			"text/plain",
			"text/javascript",
			"application/javascript",
		},
	}
}

// gzipWriterPool reduces allocations by reusing gzip writers
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter buffers the response until it knows whether the
// body is large enough and of a compressible type.
type gzipResponseWriter struct {
	http.ResponseWriter
	gzipWriter    *gzip.Writer
	config        CompressionConfig
	buffer        []byte
	statusCode    int
	headerWritten bool
	compressing   bool
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		statusCode:     http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if g.headerWritten {
		return
	}
	g.statusCode = statusCode
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.headerWritten {
		if g.compressing {
			return g.gzipWriter.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) > g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

// decide commits to compressing or passing through, flushes the
// buffered bytes, and writes the response header.
func (g *gzipResponseWriter) decide() error {
	contentType := g.Header().Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(g.buffer)
		g.Header().Set("Content-Type", contentType)
	}

	compress := len(g.buffer) > g.config.MinSize && g.compressible(contentType)
	if compress {
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")
		g.Header().Del("Content-Length")

		gw := gzipWriterPool.Get().(*gzip.Writer)
		gw.Reset(g.ResponseWriter)
		g.gzipWriter = gw
		g.compressing = true
	} else if len(g.buffer) > 0 && g.Header().Get("Content-Length") == "" {
		g.Header().Set("Content-Length", strconv.Itoa(len(g.buffer)))
	}

	g.headerWritten = true
	g.ResponseWriter.WriteHeader(g.statusCode)

	var err error
	if g.compressing {
		_, err = g.gzipWriter.Write(g.buffer)
	} else if len(g.buffer) > 0 {
		_, err = g.ResponseWriter.Write(g.buffer)
	}
	g.buffer = nil
	return err
}

// close flushes whatever is pending and returns the pooled writer.
func (g *gzipResponseWriter) close() error {
	if !g.headerWritten {
		// Response never crossed MinSize; send it uncompressed. The
		// Content-Length must be set before the header goes out.
		g.compressing = false
		if len(g.buffer) > 0 && g.Header().Get("Content-Length") == "" {
			g.Header().Set("Content-Length", strconv.Itoa(len(g.buffer)))
		}
		g.headerWritten = true
		g.ResponseWriter.WriteHeader(g.statusCode)
		if len(g.buffer) > 0 {
			if _, err := g.ResponseWriter.Write(g.buffer); err != nil {
				return err
			}
		}
		g.buffer = nil
		return nil
	}

	if g.compressing {
		err := g.gzipWriter.Close()
		gzipWriterPool.Put(g.gzipWriter)
		g.gzipWriter = nil
		return err
	}
	return nil
}

func (g *gzipResponseWriter) compressible(contentType string) bool {
	for _, t := range g.config.CompressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Compression returns a middleware that gzip-compresses large
// compressible responses for clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := newGzipResponseWriter(w, config)
			next.ServeHTTP(gw, r)
			if err := gw.close(); err != nil {
				// The response is already partially written; nothing
				// useful left to do.
				_ = err
			}
		})
	}
}
