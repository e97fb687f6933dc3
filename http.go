package wsclient

import (
	"bytes"
	"fmt"
	"strconv"

	"nhooyr.io/wsclient/internal/bpool"
)

// HeaderField is one HTTP header line. Names are compared
// case-sensitively and fields keep the order they were added or received in.
type HeaderField struct {
	Name  string
	Value string
}

func getHeader(h []HeaderField, name string) (string, bool) {
	for _, f := range h {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Request is the HTTP upgrade request sent when the transport connects.
// Hooks.Preparing may change any of it; the body is always cleared
// before the request is sent.
type Request struct {
	Method string
	URI    string
	Header []HeaderField
	Body   []byte
}

// Get returns the value of the first header with the given name.
func (r *Request) Get(name string) string {
	v, _ := getHeader(r.Header, name)
	return v
}

// Add appends a header.
func (r *Request) Add(name, value string) {
	r.Header = append(r.Header, HeaderField{Name: name, Value: value})
}

// Set replaces the value of the first header with the given name,
// removes any later duplicates, or appends it if absent.
func (r *Request) Set(name, value string) {
	for i := range r.Header {
		if r.Header[i].Name == name {
			r.Header[i].Value = value
			r.Header = append(r.Header[:i+1], deleteHeader(r.Header[i+1:], name)...)
			return
		}
	}
	r.Add(name, value)
}

// Del removes every header with the given name.
func (r *Request) Del(name string) {
	r.Header = deleteHeader(r.Header, name)
}

func deleteHeader(h []HeaderField, name string) []HeaderField {
	out := h[:0]
	for _, f := range h {
		if f.Name != name {
			out = append(out, f)
		}
	}
	return out
}

// SetEmptyBody drops the body. An upgrade request carries no payload.
func (r *Request) SetEmptyBody() {
	r.Body = nil
	r.Del("Content-Length")
}

// Bytes serializes r as an HTTP/1.1 request.
func (r *Request) Bytes() []byte {
	b := bpool.Get()
	defer bpool.Put(b)

	r.writeTo(b)
	return append([]byte(nil), b.Bytes()...)
}

func (r *Request) writeTo(b *bytes.Buffer) {
	fmt.Fprintf(b, "%s %s HTTP/1.1\r\n", r.Method, r.URI)
	for _, f := range r.Header {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\r\n")
	}
	if len(r.Body) > 0 {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(r.Body)))
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.Write(r.Body)
}

func (r *Request) reset() {
	*r = Request{}
}

// Response is a parsed HTTP response status line and header block.
type Response struct {
	Major      int
	Minor      int
	StatusCode int
	Reason     string
	Header     []HeaderField
}

// Get returns the value of the first header with the given name.
func (r *Response) Get(name string) string {
	v, _ := getHeader(r.Header, name)
	return v
}

func (r *Response) String() string {
	return fmt.Sprintf("HTTP/%d.%d %d %s", r.Major, r.Minor, r.StatusCode, r.Reason)
}
