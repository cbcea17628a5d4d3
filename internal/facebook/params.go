package facebook

import (
	"net/url"
	"strings"
)

// Param is one request parameter. Order within Params is significant.
// A non-empty File names a local file uploaded under Key; Value is then ignored.
type Param struct {
	Key   string
	Value string
	File  string
}

// FileParam attaches the local file at path under key. Only multipart
// executors accept it. Parameters decoded from untrusted input never carry a File.
func FileParam(key, path string) Param {
	return Param{Key: key, File: path}
}

// Params is an ordered parameter list.
type Params []Param

// ParseParams decodes a query string keeping the original parameter order.
func ParseParams(raw string) (Params, error) {
	var params Params
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Key: key, Value: val})
	}
	return params, nil
}

// HasFiles reports whether any parameter attaches a file.
func (p Params) HasFiles() bool {
	for _, kv := range p {
		if kv.File != "" {
			return true
		}
	}
	return false
}

// Get returns the first value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// With returns a copy of p with key set, replacing the first existing
// occurrence in place or appending otherwise.
func (p Params) With(key, value string) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			out[i].File = ""
			return out
		}
	}
	return append(out, Param{Key: key, Value: value})
}

// Encode URL-encodes p in its original order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}
