package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

type mwFunc http.HandlerFunc

func (sf mwFunc) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	sf(w, req)
}

// Middleware is a function that takes a handler and returns a new handler
// which wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// RequireAuth returns a Middleware that rejects any request not carrying a
// valid operator session token. Rejections sleep for unauthDelay before
// responding to deprioritize guessing.
func (api *API) RequireAuth() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, req *http.Request) {
			tok, err := getToken(req)
			if err == nil {
				err = validateToken(tok, api.Secret, api.PasswordHash)
			}
			if err != nil {
				r := Unauthorized("", err.Error())
				time.Sleep(api.UnauthDelay)
				r.WriteResponse(w)
				r.Log(req, uuid.NewString())
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// DontPanic returns a Middleware that performs a panic check as it exits. If
// the wrapped handler is panicking, it will write out an HTTP response with
// a generic message to the client and add the stack trace to the log.
func DontPanic() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, r *http.Request) {
			defer panicTo500(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		r := TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		)
		r.WriteResponse(w)
		r.Log(req, uuid.NewString())
		return true
	}
	return false
}
