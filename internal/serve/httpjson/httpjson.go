// Package httpjson renders JSON HTTP responses.
package httpjson

import (
	"encoding/json"
	"net/http"
)

type contentType int

const (
	JSON contentType = iota
	HEALTHJSON
)

var contentTypeHeaders = map[contentType]string{
	JSON:       "application/json; charset=utf-8",
	HEALTHJSON: "application/health+json; charset=utf-8",
}

// RenderStatus writes v as indented JSON with the given status code. Encoding
// errors surface as a panic: by the time the body fails to marshal the
// status line is already committed, so there is no error path left to take.
func RenderStatus(w http.ResponseWriter, statusCode int, v interface{}, cType contentType) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}

	w.Header().Set("Content-Type", contentTypeHeaders[cType])
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// Render writes v as JSON with a 200 status code.
func Render(w http.ResponseWriter, v interface{}, cType contentType) {
	RenderStatus(w, http.StatusOK, v, cType)
}
