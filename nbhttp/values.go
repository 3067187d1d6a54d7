// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// ContentType is a parsed Content-Type value.
type ContentType struct {
	Primary   string
	Secondary string
	Charset   string
	Params    map[string]string
}

// IsZero reports whether no Content-Type was parsed.
func (ct ContentType) IsZero() bool {
	return ct.Primary == ""
}

// Is reports whether the media type is primary/secondary,
// "*" matches any secondary type.
func (ct ContentType) Is(primary, secondary string) bool {
	if !strings.EqualFold(ct.Primary, primary) {
		return false
	}
	return secondary == "*" || strings.EqualFold(ct.Secondary, secondary)
}

// Param returns a parameter by its lower case name.
func (ct ContentType) Param(name string) string {
	return ct.Params[strings.ToLower(name)]
}

// String returns the media type without parameters.
func (ct ContentType) String() string {
	if ct.Secondary == "" {
		return ct.Primary
	}
	return ct.Primary + "/" + ct.Secondary
}

// Disposition is a parsed Content-Disposition value.
type Disposition struct {
	Type     string
	Name     string
	FileName string
	Params   map[string]string

	file bool
}

// IsFile reports whether a filename parameter is present, even an empty one.
func (d Disposition) IsFile() bool {
	return d.file
}

// parseMediaType keeps the media type when only a parameter is broken.
func parseMediaType(v string) (string, map[string]string, bool) {
	mediaType, params, err := mime.ParseMediaType(v)
	if mediaType == "" {
		return "", nil, false
	}
	if err != nil {
		params = nil
	}
	return mediaType, params, true
}

func parseContentType(v string) (ContentType, bool) {
	mediaType, params, ok := parseMediaType(v)
	if !ok {
		return ContentType{}, false
	}
	ct := ContentType{Params: params}
	if i := strings.IndexByte(mediaType, '/'); i >= 0 {
		ct.Primary, ct.Secondary = mediaType[:i], mediaType[i+1:]
	} else {
		ct.Primary = mediaType
	}
	ct.Charset = params["charset"]
	return ct, true
}

func parseDisposition(v string) (Disposition, bool) {
	mediaType, params, ok := parseMediaType(v)
	if !ok {
		return Disposition{}, false
	}
	d := Disposition{Type: mediaType, Params: params}
	d.Name = params["name"]
	d.FileName, d.file = params["filename"]
	return d, true
}

// parseContentLength never fails, a value that is not a non-negative
// decimal yields -1.
func parseContentLength(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func parseCookies(v string) []*http.Cookie {
	r := http.Request{Header: http.Header{"Cookie": {v}}}
	return r.Cookies()
}

// parseLanguages returns the acceptable languages, most preferred first.
func parseLanguages(v string) []string {
	tags, q, err := language.ParseAcceptLanguage(v)
	if err != nil {
		return nil
	}
	languages := make([]string, 0, len(tags))
	for i, tag := range tags {
		if q[i] <= 0 {
			continue
		}
		languages = append(languages, tag.String())
	}
	return languages
}

// parseTransferEncoding returns the lower case codings in order.
func parseTransferEncoding(v string) []string {
	var codings []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			codings = append(codings, s)
		}
	}
	return codings
}
