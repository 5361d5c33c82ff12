package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/langlab/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "grotto"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	api, err := New(store.NewInMemoryStore(), []byte("test-secret"), hash, 0)
	require.NoError(t, err)

	srv := httptest.NewServer(api.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}, token string) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// the four-state NFA whose determinization is checked word-by-word below.
func nfaModel() AutomatonModel {
	return AutomatonModel{
		Alphabet: []string{"a", "b"},
		States:   []string{"1", "2", "3", "4"},
		Transitions: []TransitionModel{
			{From: "1", Label: "a", To: "1"},
			{From: "1", Label: "a", To: "2"},
			{From: "2", Label: "a", To: "4"},
			{From: "2", Label: "b", To: "3"},
			{From: "3", Label: "b", To: "3"},
			{From: "3", Label: "b", To: "4"},
		},
		Starts:  []string{"1"},
		Accepts: []string{"4"},
	}
}

func Test_EpDeterminize(t *testing.T) {
	srv := newTestServer(t)
	assert := assert.New(t)

	resp := postJSON(t, srv.URL+"/ops/determinize", AutomatonRequest{Automaton: nfaModel()}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body DeterminizeResponse
	decodeBody(t, resp, &body)

	assert.False(body.Automaton.AllowsSilent)
	assert.NotEmpty(body.Trace)
	assert.Equal([]string{"1"}, body.Trace[0].Subset)

	// the determinized automaton must still recognize the same words
	for word, want := range map[string]bool{
		"aa":   true,
		"aba":  false,
		"abb":  true,
		"aabb": true,
		"a":    false,
		"ab":   false,
		"b":    false,
	} {
		syms := make([]string, len(word))
		for i, r := range word {
			syms[i] = string(r)
		}
		accResp := postJSON(t, srv.URL+"/ops/accepts", AcceptsRequest{Automaton: body.Automaton, Word: syms}, "")
		require.Equal(t, http.StatusOK, accResp.StatusCode)
		var acc AcceptsResponse
		decodeBody(t, accResp, &acc)
		assert.Equal(want, acc.Accepted, "word %q", word)
	}
}

func Test_EpRegexToAutomaton(t *testing.T) {
	testCases := []struct {
		name   string
		regex  string
		method string
		accept []string
		reject []string
	}{
		{
			name:   "position construction of a(a|b)b",
			regex:  "a(a|b)b",
			method: "position",
			accept: []string{"aab", "abb"},
			reject: []string{"ab", "aabb", ""},
		},
		{
			name:   "fragment construction of (a|b)*abb",
			regex:  "(a|b)*abb",
			method: "fragment",
			accept: []string{"abb", "aabb", "babb", "abababb"},
			reject: []string{"ab", "ba", ""},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t)
			assert := assert.New(t)

			resp := postJSON(t, srv.URL+"/ops/regex-to-automaton", RegexToAutomatonRequest{Regex: tc.regex, Method: tc.method}, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body AutomatonResponse
			decodeBody(t, resp, &body)

			check := func(word string, want bool) {
				syms := make([]string, len(word))
				for i, r := range word {
					syms[i] = string(r)
				}
				accResp := postJSON(t, srv.URL+"/ops/accepts", AcceptsRequest{Automaton: body.Automaton, Word: syms}, "")
				require.Equal(t, http.StatusOK, accResp.StatusCode)
				var acc AcceptsResponse
				decodeBody(t, accResp, &acc)
				assert.Equal(want, acc.Accepted, "word %q", word)
			}
			for _, w := range tc.accept {
				check(w, true)
			}
			for _, w := range tc.reject {
				check(w, false)
			}
		})
	}
}

func Test_EpRegexToAutomaton_badInput(t *testing.T) {
	srv := newTestServer(t)
	assert := assert.New(t)

	resp := postJSON(t, srv.URL+"/ops/regex-to-automaton", RegexToAutomatonRequest{Regex: "a(b", Method: "position"}, "")
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/ops/regex-to-automaton", RegexToAutomatonRequest{Regex: "ab", Method: "thompson"}, "")
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func Test_EpSolve(t *testing.T) {
	srv := newTestServer(t)
	assert := assert.New(t)

	resp := postJSON(t, srv.URL+"/ops/solve", SolveRequest{
		Equations: map[string][]EquationTermModel{
			"X1": {{Factor: "b", Ref: "X1"}, {Factor: "a", Ref: "X2"}},
			"X2": {{Factor: "b", Ref: "X1"}, {Factor: "a", Ref: "X2"}, {Factor: "b", Ref: "X3"}, {Factor: "ε"}},
			"X3": {{Factor: "b", Ref: "X1"}},
		},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body SolveResponse
	decodeBody(t, resp, &body)

	assert.Len(body.Solutions, 3)
	assert.NotEmpty(body.Solutions["X1"])
	assert.NotEmpty(body.Solutions["X2"])
	assert.NotEmpty(body.Solutions["X3"])
}

func Test_Login(t *testing.T) {
	srv := newTestServer(t)
	assert := assert.New(t)

	resp := postJSON(t, srv.URL+"/login", LoginRequest{Password: "wrong"}, "")
	assert.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/login", LoginRequest{Password: testPassword}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body LoginResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(body.Token)
}

func Test_SavedAutomataCRUD(t *testing.T) {
	srv := newTestServer(t)
	assert := assert.New(t)

	// writes without a token are rejected
	resp := postJSON(t, srv.URL+"/automata", SaveAutomatonRequest{Name: "evens", Automaton: nfaModel()}, "")
	assert.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/login", LoginRequest{Password: testPassword}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var login LoginResponse
	decodeBody(t, resp, &login)

	resp = postJSON(t, srv.URL+"/automata", SaveAutomatonRequest{Name: "evens", Automaton: nfaModel()}, login.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created SavedAutomatonModel
	decodeBody(t, resp, &created)
	assert.Equal("evens", created.Name)
	assert.NotEmpty(created.ID)

	// duplicate name is a conflict
	resp = postJSON(t, srv.URL+"/automata", SaveAutomatonRequest{Name: "evens", Automaton: nfaModel()}, login.Token)
	assert.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// reads need no token
	getResp, err := http.Get(srv.URL + "/automata/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var fetched SavedAutomatonModel
	decodeBody(t, getResp, &fetched)
	assert.Equal(created.ID, fetched.ID)
	assert.Equal(nfaModel().States, fetched.Automaton.States)

	listResp, err := http.Get(srv.URL + "/automata")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var all []SavedAutomatonModel
	decodeBody(t, listResp, &all)
	assert.Len(all, 1)

	delReq, err := http.NewRequest(http.MethodDelete, srv.URL+"/automata/"+created.ID, nil)
	require.NoError(t, err)
	delReq.Header.Set("Authorization", "Bearer "+login.Token)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	assert.Equal(http.StatusOK, delResp.StatusCode)
	delResp.Body.Close()

	getResp, err = http.Get(srv.URL + "/automata/" + created.ID)
	require.NoError(t, err)
	assert.Equal(http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()
}
