package utils

import (
	"compress/gzip"
	"io"
	"net/http"
	"sync"
)

var gzipPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// GetGzipWriter returns a pooled gzip writer reset onto w.
func GetGzipWriter(w io.Writer) *gzip.Writer {
	gz := gzipPool.Get().(*gzip.Writer)
	gz.Reset(w)
	return gz
}

// PutGzipWriter closes gz and returns it to the pool.
func PutGzipWriter(gz *gzip.Writer) {
	gz.Close()
	gzipPool.Put(gz)
}

type GzipResponseWriter struct {
	http.ResponseWriter
	*gzip.Writer
}

func (w *GzipResponseWriter) Header() http.Header {
	return w.ResponseWriter.Header()
}

func (w *GzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *GzipResponseWriter) Flush() {
	w.Writer.Flush()
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
