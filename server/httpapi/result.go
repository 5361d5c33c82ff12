package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// ErrorResponse is the JSON body of every error response sent by the API.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is the outcome of one endpoint call, produced by an EndpointFunc
// and written out exactly once by the surrounding handler. Constructors
// separate what the client sees (the response object or ErrorResponse) from
// what ends up in the server log (InternalMsg).
type Result struct {
	Status      int
	IsErr       bool
	InternalMsg string

	resp      interface{}
	asText    bool
	hdrs      http.Header
	marshaled []byte
}

// internalMessage resolves the optional trailing internalMsg arguments
// every constructor takes: empty means the default, otherwise the first
// argument is a format string for the rest.
func internalMessage(def string, msgAndArgs []interface{}) string {
	if len(msgAndArgs) == 0 {
		return def
	}
	return fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...)
}

// success builds a non-error JSON Result. If status is
// http.StatusNoContent, respObj will not be read and may be nil.
func success(status int, respObj interface{}, def string, msgAndArgs []interface{}) Result {
	return Result{
		Status:      status,
		resp:        respObj,
		InternalMsg: internalMessage(def, msgAndArgs),
	}
}

// failure builds an error JSON Result; the ErrorResponse body echoes the
// status so clients parsing only the body still see it.
func failure(status int, userMsg, def string, msgAndArgs []interface{}) Result {
	return Result{
		Status:      status,
		IsErr:       true,
		resp:        ErrorResponse{Error: userMsg, Status: status},
		InternalMsg: internalMessage(def, msgAndArgs),
	}
}

// OK returns a Result containing an HTTP-200 along with a more detailed
// message (if desired; if none is provided it defaults to a generic one)
// that is not displayed to the client.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return success(http.StatusOK, respObj, "OK", internalMsg)
}

// Created returns a Result containing an HTTP-201 along with a more
// detailed message that is not displayed to the client.
func Created(respObj interface{}, internalMsg ...interface{}) Result {
	return success(http.StatusCreated, respObj, "created", internalMsg)
}

// NoContent returns a Result containing an HTTP-204.
func NoContent(internalMsg ...interface{}) Result {
	return success(http.StatusNoContent, nil, "no content", internalMsg)
}

// BadRequest returns a Result containing an HTTP-400 along with a more
// detailed message that is not displayed to the client.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return failure(http.StatusBadRequest, userMsg, "bad request", internalMsg)
}

// NotFound returns a Result containing an HTTP-404 response.
func NotFound(internalMsg ...interface{}) Result {
	return failure(http.StatusNotFound, "The requested resource was not found", "not found", internalMsg)
}

// Conflict returns a Result containing an HTTP-409 response.
func Conflict(userMsg string, internalMsg ...interface{}) Result {
	return failure(http.StatusConflict, userMsg, "conflict", internalMsg)
}

// Unauthorized returns a Result containing an HTTP-401 response along with
// the proper WWW-Authenticate header.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}
	return failure(http.StatusUnauthorized, userMsg, "unauthorized", internalMsg).
		WithHeader("WWW-Authenticate", `Bearer realm="langlab server", charset="utf-8"`)
}

// InternalServerError returns a Result containing an HTTP-500 response
// along with a more detailed message that is not displayed to the client.
func InternalServerError(internalMsg ...interface{}) Result {
	return failure(http.StatusInternalServerError, "An internal server error occurred", "internal server error", internalMsg)
}

// TextErr is an error Result written as plain text with no JSON encoding of
// any kind. Used only by the panic recovery path, where JSON marshaling
// itself may be the thing that failed.
func TextErr(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		Status:      status,
		IsErr:       true,
		asText:      true,
		resp:        userMsg,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
	}
}

// WithHeader returns a copy of the Result that carries the given header on
// its eventual response.
func (r Result) WithHeader(name, val string) Result {
	out := r
	out.hdrs = make(http.Header, len(r.hdrs)+1)
	for k, vs := range r.hdrs {
		out.hdrs[k] = vs
	}
	out.hdrs.Set(name, val)
	return out
}

// marshal resolves the response body once, caching the bytes. The endpoint
// wrapper calls this before sending so a marshal failure can still become a
// clean HTTP-500; WriteResponse reuses the cached bytes (or computes them,
// and panics on failure, if the wrapper was bypassed).
func (r *Result) marshal() error {
	if r.marshaled != nil || r.Status == http.StatusNoContent {
		return nil
	}
	if r.asText {
		r.marshaled = []byte(fmt.Sprintf("%v", r.resp))
		return nil
	}
	b, err := json.Marshal(r.resp)
	if err != nil {
		return err
	}
	r.marshaled = b
	return nil
}

// WriteResponse writes the Result out on w. Panics if the Result was never
// populated or cannot be marshaled; the surrounding handler's panic
// recovery turns that into a plain-text HTTP-500.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("result not populated")
	}
	if err := r.marshal(); err != nil {
		panic(fmt.Sprintf("could not marshal response: %s", err.Error()))
	}

	contentType := "application/json"
	if r.asText {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	for k, vs := range r.hdrs {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	w.WriteHeader(r.Status)

	if r.Status != http.StatusNoContent {
		w.Write(r.marshaled)
	}
}

// Log writes the Result to the server log, one line per response, with the
// request id assigned by the endpoint wrapper so concurrent requests can be
// told apart.
func (r Result) Log(req *http.Request, reqID string) {
	level := "INFO"
	if r.IsErr {
		level = "ERROR"
	}
	logHTTPResponse(level, req, reqID, r.Status, r.InternalMsg)
}

func logHTTPResponse(level string, req *http.Request, reqID string, respStatus int, msg string) {
	if len(level) > 5 {
		level = level[0:5]
	}

	for len(level) < 5 {
		level += " "
	}

	// we don't really care about the ephemeral port from the client end
	remoteAddrParts := strings.SplitN(req.RemoteAddr, ":", 2)
	remoteIP := remoteAddrParts[0]

	log.Printf("%s (%s) %s %s %s: HTTP-%d %s", level, reqID, remoteIP, req.Method, req.URL.Path, respStatus, msg)
}
