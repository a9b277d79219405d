package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	contentTypeJSON = "application/json;charset=UTF-8"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Request describes one API call. Bodies are rebuilt on every send so a
// request can be re-issued after a token refresh.
type Request struct {
	Method string
	Path   string // Resolved against the client's base URL
	Query  url.Values
	JSON   any        // JSON body; mutually exclusive with Form
	Form   url.Values // Form-encoded body
	Header http.Header

	// SkipNormalize sends string values exactly as given instead of trimming
	// them and collapsing whitespace runs.
	SkipNormalize bool

	retried   bool   // Set once the request has been re-issued after a refresh
	noRefresh bool   // A 401 is a plain failure, e.g. rejected credentials
	bearer    string // Overrides the resolved bearer token
	bare      bool   // No bearer, no refresh-and-retry, no notification
}

// CollapseWhitespace trims s and replaces every whitespace run with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeQuery cleans every value and drops those that end up empty.
func NormalizeQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for key, values := range q {
		for _, v := range values {
			if cleaned := CollapseWhitespace(v); cleaned != "" {
				out.Add(key, cleaned)
			}
		}
	}
	return out
}

// NormalizeForm cleans every form value, keeping empty ones.
func NormalizeForm(form url.Values) url.Values {
	out := make(url.Values, len(form))
	for key, values := range form {
		for _, v := range values {
			out.Add(key, CollapseWhitespace(v))
		}
	}
	return out
}

// NormalizeJSON cleans every string leaf of a decoded JSON document.
func NormalizeJSON(v any) any {
	switch t := v.(type) {
	case string:
		return CollapseWhitespace(t)
	case map[string]any:
		for k, child := range t {
			t[k] = NormalizeJSON(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = NormalizeJSON(child)
		}
		return t
	default:
		return v
	}
}

func (r *Request) query() url.Values {
	if r.Query == nil || r.SkipNormalize {
		return r.Query
	}
	return NormalizeQuery(r.Query)
}

// body returns the encoded body and its content type.
func (r *Request) body() (io.Reader, string, error) {
	switch {
	case r.Form != nil:
		form := r.Form
		if !r.SkipNormalize {
			form = NormalizeForm(form)
		}
		return strings.NewReader(form.Encode()), contentTypeForm, nil
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", err
		}
		if !r.SkipNormalize {
			if data, err = normalizeJSONBytes(data); err != nil {
				return nil, "", err
			}
		}
		return bytes.NewReader(data), contentTypeJSON, nil
	}
	return nil, "", nil
}

func normalizeJSONBytes(data []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return json.Marshal(NormalizeJSON(doc))
}
