// Package httpapi provides the HTTP JSON API of the langlab server. It
// exposes every kernel operation (determinize, minimize, complement,
// product, regex conversion in both directions, equation solving) as a
// stateless POST endpoint under /ops, and a saved-automaton collection under
// /automata whose write operations are gated behind an operator session
// token minted by POST /login.
//
// The package never calls the kernel on its own behalf; every endpoint is a
// thin translation between the wire models in endpoints.go and the kernel's
// types, so all language semantics stay in one place.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/langlab/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// PathPrefix is the prefix of all paths in the API. Routers should mount
	// a sub-router that routes all requests to the API at this path.
	PathPrefix = "/api/v1"
)

// ErrMalformedBody is wrapped by parseJSON errors caused by the body itself
// (as opposed to a wrong content type).
var ErrMalformedBody = errors.New("malformed data in request")

// API holds parameters for endpoints needed to run. To use API, create one
// with New and then mount the router returned by Routes.
type API struct {
	// Store persists saved automata across requests.
	Store store.Store

	// Secret is the secret used to sign session JWTs.
	Secret []byte

	// PasswordHash is the bcrypt hash of the operator password that POST
	// /login checks submissions against.
	PasswordHash []byte

	// UnauthDelay is the amount of time that a request will pause before
	// responding with an HTTP-401 or HTTP-500 to deprioritize such requests
	// from processing and I/O.
	UnauthDelay time.Duration
}

// New validates the given parameters and builds an API from them. An empty
// secret or password hash is rejected here rather than silently producing
// tokens any client could forge.
func New(st store.Store, secret, passwordHash []byte, unauthDelay time.Duration) (*API, error) {
	if st == nil {
		return nil, fmt.Errorf("store must not be nil")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	if len(passwordHash) == 0 {
		return nil, fmt.Errorf("operator password hash must not be empty")
	}
	return &API{
		Store:        st,
		Secret:       secret,
		PasswordHash: passwordHash,
		UnauthDelay:  unauthDelay,
	}, nil
}

// Routes returns the router for the whole API, ready to be mounted at
// PathPrefix.
func (api *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(DontPanic())

	r.Post("/login", api.endpoint(api.epCreateLogin))

	r.Route("/ops", func(r chi.Router) {
		r.Post("/determinize", api.endpoint(api.epDeterminize))
		r.Post("/minimize", api.endpoint(api.epMinimize))
		r.Post("/complete", api.endpoint(api.epComplete))
		r.Post("/prune", api.endpoint(api.epPrune))
		r.Post("/complement", api.endpoint(api.epComplement))
		r.Post("/product", api.endpoint(api.epProduct))
		r.Post("/regex-to-automaton", api.endpoint(api.epRegexToAutomaton))
		r.Post("/automaton-to-regex", api.endpoint(api.epAutomatonToRegex))
		r.Post("/solve", api.endpoint(api.epSolve))
		r.Post("/simplify", api.endpoint(api.epSimplify))
		r.Post("/accepts", api.endpoint(api.epAccepts))
	})

	r.Route("/automata", func(r chi.Router) {
		r.Get("/", api.endpoint(api.epGetAllAutomata))
		r.Get("/{id}", api.endpoint(api.epGetAutomaton))

		r.Group(func(r chi.Router) {
			r.Use(api.RequireAuth())
			r.Post("/", api.endpoint(api.epCreateAutomaton))
			r.Put("/{id}", api.endpoint(api.epUpdateAutomaton))
			r.Delete("/{id}", api.endpoint(api.epDeleteAutomaton))
		})
	})

	return r
}

// EndpointFunc is one endpoint's logic: consume the request, produce exactly
// one Result.
type EndpointFunc func(req *http.Request) Result

// endpoint wraps an EndpointFunc into an http.HandlerFunc that handles
// logging, panic recovery, marshal failures, and the unauthorized-response
// delay uniformly. Each request is assigned an id that appears in every log
// line it produces.
func (api *API) endpoint(ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)

		reqID := uuid.NewString()
		r := ep(req)

		// if this hasn't been properly created, output error directly and do
		// not try to read properties
		if r.Status == 0 {
			logHTTPResponse("ERROR", req, reqID, http.StatusInternalServerError, "endpoint result was never populated")
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		// pre-call marshal bc if it fails in the call to WriteResponse, it
		// will panic.
		if err := r.marshal(); err != nil {
			newResp := InternalServerError("could not marshal JSON response: %s", err.Error())
			newResp.Log(req, reqID)
			newResp.WriteResponse(w)
			return
		}

		r.Log(req, reqID)

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusInternalServerError {
			// either the client is improperly logging in or something broke
			// server-side; both should force the wait time before responding.
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w)
	}
}

// requireIDParam gets the ID of the main entity being referenced in the URI
// and returns it. It panics if the key is not there or is not parsable.
func requireIDParam(r *http.Request) uuid.UUID {
	id, err := getURLParam(r, "id", uuid.Parse)
	if err != nil {
		panic(err.Error())
	}
	return id
}

func getURLParam[E any](r *http.Request, key string, parse func(string) (E, error)) (val E, err error) {
	valStr := chi.URLParam(r, key)
	if valStr == "" {
		// either it does not exist or it is nil; treat both as the same and
		// return an error
		return val, fmt.Errorf("parameter does not exist")
	}

	val, err = parse(valStr)
	if err != nil {
		return val, fmt.Errorf("parameter %q is not valid: %w", key, err)
	}
	return val, nil
}

// parseJSON decodes req's body into v, which must be a pointer. Will return
// an error such that errors.Is(err, ErrMalformedBody) returns true if it is
// a problem decoding the JSON itself.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")

	if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	err = json.Unmarshal(bodyData, v)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedBody, err.Error())
	}

	return nil
}
