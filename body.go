package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ansel1/merry"
)

// RequestBody is the payload attached to a call: either an in-memory byte
// slice or the path of a file which is streamed when the request is sent.
// The zero value is an empty in-memory body.
type RequestBody struct {
	data   []byte
	file   string
	isFile bool
}

// DataBody returns an in-memory body.
func DataBody(data []byte) *RequestBody {
	if data == nil {
		data = []byte{}
	}
	return &RequestBody{data: data}
}

// FileBody returns a body streamed from the file at path.
func FileBody(path string) *RequestBody {
	return &RequestBody{file: path, isFile: true}
}

// IsFile reports whether the body is streamed from a file.
func (b *RequestBody) IsFile() bool {
	return b.isFile
}

// Data returns the in-memory payload, or nil for file bodies.
func (b *RequestBody) Data() []byte {
	return b.data
}

// File returns the file path, or "" for in-memory bodies.
func (b *RequestBody) File() string {
	return b.file
}

// Open returns a reader for the payload and its length.
func (b *RequestBody) Open() (io.ReadCloser, int64, error) {
	if !b.IsFile() {
		return io.NopCloser(bytes.NewReader(b.data)), int64(len(b.data)), nil
	}
	f, err := os.Open(b.file)
	if err != nil {
		return nil, 0, merry.Prepend(err, "opening request body file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, merry.Prepend(err, "reading request body file")
	}
	return f, info.Size(), nil
}

// String summarizes the body for log messages.
func (b *RequestBody) String() string {
	if b == nil {
		return ""
	}
	if b.IsFile() {
		return "file: " + b.file
	}
	return fmt.Sprintf("%d bytes", len(b.data))
}

// BodyProvider produces the in-memory request body at dispatch time.  A non-empty
// contentType is used as the request's Content-Type unless the request already
// carries one.  Returning nil data means "no data body".
type BodyProvider func(configs Configs) (data []byte, contentType string, err error)

// FileProvider returns the path of a file to stream as the request body, or "".
type FileProvider func(configs Configs) string

var (
	bodyKey = NewKey[BodyProvider]("body", nil)
	fileKey = NewKey[FileProvider]("file", nil)
)

// Body returns the configured body provider, or nil.
func (c Configs) Body() BodyProvider {
	return GetConfig(c, bodyKey)
}

// File returns the configured file provider, or nil.
func (c Configs) File() FileProvider {
	return GetConfig(c, fileKey)
}

// buildBody picks the body for a call.  An in-memory body wins over a file body;
// the two are never merged.
func buildBody(req *Request, configs Configs) (*RequestBody, error) {
	if provider := configs.Body(); provider != nil {
		data, ct, err := provider(configs)
		if err != nil {
			return nil, merry.Prepend(err, "encoding request body")
		}
		if data != nil {
			if ct != "" && req.Headers().Get(HeaderContentType) == "" {
				req.Headers().Set(HeaderContentType, ct)
			}
			return DataBody(data), nil
		}
	}
	if provider := configs.File(); provider != nil {
		if path := provider(configs); path != "" {
			return FileBody(path), nil
		}
	}
	return nil, nil
}

// encodeBody converts a Body() option value into bytes.  Strings, byte slices and
// readers are used as-is; anything else goes through the Marshaler.
func encodeBody(v interface{}, configs Configs) ([]byte, string, error) {
	switch t := v.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return t, "", nil
	case string:
		return []byte(t), "", nil
	case io.Reader:
		b, err := io.ReadAll(t)
		return b, "", merry.Wrap(err)
	default:
		return configs.Marshaler().Marshal(v)
	}
}
