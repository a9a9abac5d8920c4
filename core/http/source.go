// Package http serves an archive's data blob from a URL, so the header can
// be decoded locally while file contents are fetched with range requests.
package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Errors returned by Source.
var (
	// ErrRangeUnsupported is returned when the server ignores Range headers.
	ErrRangeUnsupported = errors.New("http: server does not support range requests")

	// ErrContentChanged is returned when a read is refused because the blob
	// no longer matches the ETag seen by the last size check.
	ErrContentChanged = errors.New("http: data blob changed on server")
)

// Source is a sah.ByteSource over a remote data blob.
//
// Size asks the server for the blob's current length, so archive reads are
// bounds-checked against the live blob like local files are. Each range
// read carries If-Match with the ETag from the latest size check, so a blob
// replaced between the check and the read fails with ErrContentChanged
// instead of returning mixed content.
type Source struct {
	url     string
	client  *nethttp.Client
	headers nethttp.Header
	sizeTTL time.Duration
	ifMatch bool

	mu    sync.Mutex
	state blobState
}

// blobState is what the server last reported about the blob.
type blobState struct {
	size      int64
	etag      string
	modified  string
	checkedAt time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeader adds a header, such as Authorization, to every request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		s.headers.Add(key, value)
	}
}

// WithSizeTTL lets Size reuse the last reported length for d instead of
// asking the server on every call. The default of 0 always asks.
func WithSizeTTL(d time.Duration) Option {
	return func(s *Source) {
		s.sizeTTL = d
	}
}

// WithConditionalReads controls whether range reads send If-Match
// (default true). Disable it for servers that mishandle conditional ranges.
func WithConditionalReads(enabled bool) Option {
	return func(s *Source) {
		s.ifMatch = enabled
	}
}

// NewSource checks that url serves range requests and records the blob's
// length and validators.
func NewSource(url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:     url,
		client:  nethttp.DefaultClient,
		headers: make(nethttp.Header),
		ifMatch: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}
	if _, err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Size returns the blob's current length as reported by the server.
func (s *Source) Size() (int64, error) {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if s.sizeTTL > 0 && time.Since(st.checkedAt) < s.sizeTTL {
		return st.size, nil
	}
	st, err := s.refresh()
	if err != nil {
		return 0, err
	}
	return st.size, nil
}

// SourceID identifies the blob's current content. It changes when the
// server reports a new ETag, modification time or length, so cached data
// from an older blob is not reused.
func (s *Source) SourceID() string {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	switch {
	case st.etag != "":
		return fmt.Sprintf("http:%s#etag=%s", s.url, st.etag)
	case st.modified != "":
		return fmt.Sprintf("http:%s#modified=%s;size=%d", s.url, st.modified, st.size)
	default:
		return fmt.Sprintf("http:%s#size=%d", s.url, st.size)
	}
}

// ReadAt fetches len(p) bytes at off with one range request. Reads past
// the last known length are shortened and return io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("http: read at negative offset %d", off)
	}

	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if off >= st.size {
		return 0, io.EOF
	}
	want := int64(len(p))
	if off+want > st.size {
		want = st.size - off
	}

	resp, err := s.get(off, off+want-1, st.etag)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusPreconditionFailed:
		return 0, fmt.Errorf("read %d bytes at %d: %w", want, off, ErrContentChanged)
	case nethttp.StatusOK:
		return 0, ErrRangeUnsupported
	default:
		return 0, fmt.Errorf("http: read %d bytes at %d: %s", want, off, resp.Status)
	}

	start, total, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return 0, err
	}
	if start != off {
		return 0, fmt.Errorf("http: asked for offset %d, server sent %d", off, start)
	}
	if total != st.size {
		// The blob was resized between the size check and this read; the
		// next Size call sees the new length.
		s.mu.Lock()
		s.state.size = total
		s.state.checkedAt = time.Time{}
		s.mu.Unlock()
	}

	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		return n, err
	}
	if want < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

// refresh asks the server for the blob's length and validators with a
// one-byte range request and stores the answer.
func (s *Source) refresh() (blobState, error) {
	resp, err := s.get(0, 0, "")
	if err != nil {
		return blobState{}, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusRequestedRangeNotSatisfiable:
		// An empty blob has no satisfiable range; Content-Range still
		// carries its length.
	case nethttp.StatusOK:
		return blobState{}, ErrRangeUnsupported
	default:
		return blobState{}, fmt.Errorf("http: size check: %s", resp.Status)
	}

	_, total, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return blobState{}, err
	}
	st := blobState{
		size:      total,
		etag:      resp.Header.Get("ETag"),
		modified:  resp.Header.Get("Last-Modified"),
		checkedAt: time.Now(),
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return st, nil
}

// get issues a GET for bytes [first, last], conditional on etag when
// conditional reads are enabled and etag is known.
func (s *Source) get(first, last int64, etag string) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(context.Background(), nethttp.MethodGet, s.url, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	// Compressed responses would break byte offsets.
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Range", "bytes="+strconv.FormatInt(first, 10)+"-"+strconv.FormatInt(last, 10))
	if s.ifMatch && etag != "" {
		req.Header.Set("If-Match", etag)
	}
	return s.client.Do(req)
}

// drain discards and closes the body so the connection can be reused.
func drain(resp *nethttp.Response) {
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best effort
	_ = resp.Body.Close()
}

// parseContentRange parses "bytes first-last/total" or "bytes */total".
// start is -1 for the unsatisfied form.
func parseContentRange(value string) (start, total int64, err error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return 0, 0, fmt.Errorf("http: bad Content-Range %q", value)
	}
	rng, totalStr, ok := strings.Cut(spec, "/")
	if !ok {
		return 0, 0, fmt.Errorf("http: bad Content-Range %q", value)
	}
	total, err = strconv.ParseInt(totalStr, 10, 64)
	if err != nil || total < 0 {
		return 0, 0, fmt.Errorf("http: bad Content-Range %q", value)
	}
	if rng == "*" {
		return -1, total, nil
	}
	firstStr, _, ok := strings.Cut(rng, "-")
	if !ok {
		return 0, 0, fmt.Errorf("http: bad Content-Range %q", value)
	}
	start, err = strconv.ParseInt(firstStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("http: bad Content-Range %q", value)
	}
	return start, total, nil
}
