package httpapi

import (
	"errors"
	"net/http"
	"sort"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/kernelerrors"
	"github.com/dekarrin/langlab/internal/regexast"
	"github.com/dekarrin/langlab/internal/store"
	"github.com/dekarrin/langlab/internal/synth"
	"golang.org/x/crypto/bcrypt"
)

// TransitionModel is one (from, label, to) triple on the wire. The silent
// label is spelled "ε"; "epsilon" is accepted on input.
type TransitionModel struct {
	From  string `json:"from"`
	Label string `json:"label"`
	To    string `json:"to"`
}

// AutomatonModel is the wire form of an automaton: the same string-labelled
// record the builder accepts, so every automaton that crosses the boundary
// goes through full build validation on the way in.
type AutomatonModel struct {
	Alphabet     []string          `json:"alphabet"`
	States       []string          `json:"states"`
	Transitions  []TransitionModel `json:"transitions"`
	Starts       []string          `json:"starts"`
	Accepts      []string          `json:"accepts"`
	AllowsSilent bool              `json:"allows_silent"`
}

func (m AutomatonModel) toKernel() (kernel.Automaton, error) {
	alphabet := make([]kernel.Symbol, len(m.Alphabet))
	for i, s := range m.Alphabet {
		alphabet[i] = kernel.Symbol(s)
	}
	transitions := make([]kernel.TransitionSpec, len(m.Transitions))
	for i, t := range m.Transitions {
		transitions[i] = kernel.TransitionSpec{From: t.From, Label: t.Label, To: t.To}
	}
	return kernel.Build(alphabet, m.States, transitions, m.Starts, m.Accepts, m.AllowsSilent)
}

func modelFromKernel(a kernel.Automaton) AutomatonModel {
	return modelFromSpec(store.ToSpec(a))
}

func modelFromSpec(s store.AutomatonSpec) AutomatonModel {
	transitions := make([]TransitionModel, len(s.Transitions))
	for i, t := range s.Transitions {
		transitions[i] = TransitionModel{From: t.From, Label: t.Label, To: t.To}
	}
	return AutomatonModel{
		Alphabet:     s.Alphabet,
		States:       s.States,
		Transitions:  transitions,
		Starts:       s.Starts,
		Accepts:      s.Accepts,
		AllowsSilent: s.AllowsSilent,
	}
}

func (m AutomatonModel) toSpec() store.AutomatonSpec {
	transitions := make([]store.TransitionSpec, len(m.Transitions))
	for i, t := range m.Transitions {
		transitions[i] = store.TransitionSpec{From: t.From, Label: t.Label, To: t.To}
	}
	return store.AutomatonSpec{
		Alphabet:     m.Alphabet,
		States:       m.States,
		Transitions:  transitions,
		Starts:       m.Starts,
		Accepts:      m.Accepts,
		AllowsSilent: m.AllowsSilent,
	}
}

// errToResult maps an error from the kernel or the store to the Result that
// reports it. Invalid input is always the client's problem, never a 500.
func errToResult(err error) Result {
	switch {
	case errors.Is(err, kernelerrors.ErrInvalidAutomaton),
		errors.Is(err, kernelerrors.ErrInvalidRegex),
		errors.Is(err, kernelerrors.ErrNotDeterministic),
		errors.Is(err, kernelerrors.ErrNotComplete),
		errors.Is(err, kernelerrors.ErrAlphabetMismatch),
		errors.Is(err, ErrMalformedBody):
		return BadRequest(err.Error(), err.Error())
	case errors.Is(err, store.ErrNotFound):
		return NotFound(err.Error())
	case errors.Is(err, store.ErrConstraintViolation):
		return Conflict(err.Error(), err.Error())
	default:
		return InternalServerError(err.Error())
	}
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the minted session token.
type LoginResponse struct {
	Token string `json:"token"`
}

func (api *API) epCreateLogin(req *http.Request) Result {
	var loginData LoginRequest
	if err := parseJSON(req, &loginData); err != nil {
		return BadRequest(err.Error(), err.Error())
	}

	if loginData.Password == "" {
		return BadRequest("password: property is empty or missing from request", "empty password")
	}

	if err := bcrypt.CompareHashAndPassword(api.PasswordHash, []byte(loginData.Password)); err != nil {
		return Unauthorized("the supplied password is incorrect", "bad operator password")
	}

	tok, err := generateToken(api.Secret, api.PasswordHash)
	if err != nil {
		return InternalServerError("could not generate JWT: " + err.Error())
	}

	return Created(LoginResponse{Token: tok}, "operator successfully logged in")
}

// AutomatonRequest is the body of the single-automaton operation endpoints.
type AutomatonRequest struct {
	Automaton AutomatonModel `json:"automaton"`
}

// AutomatonResponse is the body returned by operations that produce one
// automaton and nothing else.
type AutomatonResponse struct {
	Automaton AutomatonModel `json:"automaton"`
}

func (api *API) parseAutomatonBody(req *http.Request) (kernel.Automaton, error) {
	var body AutomatonRequest
	if err := parseJSON(req, &body); err != nil {
		return kernel.Automaton{}, err
	}
	return body.Automaton.toKernel()
}

// TraceEntry is one determinized state together with the subset of input
// states it stands for.
type TraceEntry struct {
	State  string   `json:"state"`
	Subset []string `json:"subset"`
}

// DeterminizeResponse is the body of POST /ops/determinize.
type DeterminizeResponse struct {
	Automaton AutomatonModel `json:"automaton"`
	Trace     []TraceEntry   `json:"trace"`
}

func (api *API) epDeterminize(req *http.Request) Result {
	a, err := api.parseAutomatonBody(req)
	if err != nil {
		return errToResult(err)
	}

	det, trace := kernel.Determinize(a)

	symtab := a.SymbolTable()
	detTab := det.SymbolTable()
	entries := make([]TraceEntry, len(trace.Subsets))
	for i, subset := range trace.Subsets {
		names := make([]string, 0, subset.Len())
		for _, q := range subset.Sorted() {
			names = append(names, symtab.StateName(q))
		}
		entries[i] = TraceEntry{State: detTab.StateName(kernel.StateID(i)), Subset: names}
	}

	return OK(DeterminizeResponse{Automaton: modelFromKernel(det), Trace: entries},
		"determinized %d states to %d", a.NumStates(), det.NumStates())
}

// MinimizeResponse is the body of POST /ops/minimize. Rounds holds the
// partition after each refinement pass as groups of internal state ids of
// the pruned input (the removal of unreachable and dead states that precedes
// refinement renumbers states densely, and that pruned automaton is not
// returned).
type MinimizeResponse struct {
	Automaton AutomatonModel `json:"automaton"`
	Rounds    [][][]int      `json:"rounds"`
}

func (api *API) epMinimize(req *http.Request) Result {
	a, err := api.parseAutomatonBody(req)
	if err != nil {
		return errToResult(err)
	}

	min, trace, err := kernel.MinimizeWithTrace(a)
	if err != nil {
		return errToResult(err)
	}

	rounds := make([][][]int, len(trace.Partitions))
	for i, part := range trace.Partitions {
		blocks := make([]kernel.BlockID, 0, len(part))
		for b := range part {
			blocks = append(blocks, b)
		}
		sort.Slice(blocks, func(x, y int) bool { return blocks[x] < blocks[y] })
		for _, b := range blocks {
			ids := make([]int, 0, part[b].Len())
			for _, q := range part[b].Sorted() {
				ids = append(ids, int(q))
			}
			rounds[i] = append(rounds[i], ids)
		}
	}

	return OK(MinimizeResponse{Automaton: modelFromKernel(min), Rounds: rounds},
		"minimized %d states to %d", a.NumStates(), min.NumStates())
}

// CompleteResponse is the body of POST /ops/complete.
type CompleteResponse struct {
	Automaton          AutomatonModel `json:"automaton"`
	WasAlreadyComplete bool           `json:"was_already_complete"`
	SinkAdded          bool           `json:"sink_added"`
}

func (api *API) epComplete(req *http.Request) Result {
	a, err := api.parseAutomatonBody(req)
	if err != nil {
		return errToResult(err)
	}

	completed, report, err := kernel.CompleteReport(a)
	if err != nil {
		return errToResult(err)
	}

	return OK(CompleteResponse{
		Automaton:          modelFromKernel(completed),
		WasAlreadyComplete: report.WasAlreadyComplete,
		SinkAdded:          report.SinkAdded,
	}, "completed automaton")
}

func (api *API) epPrune(req *http.Request) Result {
	a, err := api.parseAutomatonBody(req)
	if err != nil {
		return errToResult(err)
	}

	pruned := kernel.Prune(a)
	return OK(AutomatonResponse{Automaton: modelFromKernel(pruned)},
		"pruned %d states to %d", a.NumStates(), pruned.NumStates())
}

// ComplementRequest is the body of POST /ops/complement.
type ComplementRequest struct {
	Automaton   AutomatonModel `json:"automaton"`
	AutoPrepare bool           `json:"auto_prepare"`
}

func (api *API) epComplement(req *http.Request) Result {
	var body ComplementRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}

	a, err := body.Automaton.toKernel()
	if err != nil {
		return errToResult(err)
	}

	comp, err := kernel.Complement(a, body.AutoPrepare)
	if err != nil {
		return errToResult(err)
	}

	return OK(AutomatonResponse{Automaton: modelFromKernel(comp)}, "complemented automaton")
}

// ProductRequest is the body of POST /ops/product. Mode is "intersection"
// or "union".
type ProductRequest struct {
	Left  AutomatonModel `json:"left"`
	Right AutomatonModel `json:"right"`
	Mode  string         `json:"mode"`
}

func (api *API) epProduct(req *http.Request) Result {
	var body ProductRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}

	var mode kernel.ProductMode
	switch body.Mode {
	case "intersection":
		mode = kernel.Intersection
	case "union":
		mode = kernel.Union
	default:
		return BadRequest("mode: must be \"intersection\" or \"union\"", "bad product mode %q", body.Mode)
	}

	left, err := body.Left.toKernel()
	if err != nil {
		return errToResult(err)
	}
	right, err := body.Right.toKernel()
	if err != nil {
		return errToResult(err)
	}

	prod, err := kernel.Product(left, right, mode)
	if err != nil {
		return errToResult(err)
	}

	return OK(AutomatonResponse{Automaton: modelFromKernel(prod)}, "product (%s) of %d x %d states", body.Mode, left.NumStates(), right.NumStates())
}

// RegexToAutomatonRequest is the body of POST /ops/regex-to-automaton.
// Method is "fragment" or "position".
type RegexToAutomatonRequest struct {
	Regex  string `json:"regex"`
	Method string `json:"method"`
}

func (api *API) epRegexToAutomaton(req *http.Request) Result {
	var body RegexToAutomatonRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}

	method, err := regexast.ParseMethod(body.Method)
	if err != nil {
		return BadRequest(err.Error(), err.Error())
	}

	ast, err := regexast.Parse(body.Regex)
	if err != nil {
		return errToResult(err)
	}

	a, err := regexast.ToAutomaton(ast, method)
	if err != nil {
		return InternalServerError(err.Error())
	}

	return OK(AutomatonResponse{Automaton: modelFromKernel(a)}, "built %s automaton for regex", method)
}

// RegexRequest is the body of POST /ops/simplify.
type RegexRequest struct {
	Regex string `json:"regex"`
}

// RegexResponse carries a regex produced by the synthesis endpoints.
type RegexResponse struct {
	Regex string `json:"regex"`
}

func (api *API) epAutomatonToRegex(req *http.Request) Result {
	a, err := api.parseAutomatonBody(req)
	if err != nil {
		return errToResult(err)
	}

	return OK(RegexResponse{Regex: synth.AutomatonToRegex(a)}, "synthesized regex from %d states", a.NumStates())
}

// EquationTermModel is one summand of an equation's right-hand side: Factor
// alone when Ref is empty, Factor concatenated with the variable Ref
// otherwise.
type EquationTermModel struct {
	Factor string `json:"factor"`
	Ref    string `json:"ref,omitempty"`
}

// SolveRequest is the body of POST /ops/solve: one equation per variable.
type SolveRequest struct {
	Equations map[string][]EquationTermModel `json:"equations"`
}

// SolveResponse carries a closed-form regex per variable. Ambiguous is true
// when some self-coefficient along the way was nullable, in which case the
// solutions are the least fixed point rather than provably unique.
type SolveResponse struct {
	Solutions map[string]string `json:"solutions"`
	Ambiguous bool              `json:"ambiguous"`
}

func (api *API) epSolve(req *http.Request) Result {
	var body SolveRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}

	if len(body.Equations) == 0 {
		return BadRequest("equations: property is empty or missing from request", "empty equation system")
	}

	eqs := make(map[synth.Var]synth.Expr, len(body.Equations))
	for v, terms := range body.Equations {
		var expr synth.Expr
		for _, t := range terms {
			factor, err := regexast.Parse(t.Factor)
			if err != nil {
				return errToResult(err)
			}
			if t.Ref != "" {
				if _, ok := body.Equations[t.Ref]; !ok {
					return BadRequest("equations: term references undefined variable "+t.Ref, "undefined variable %q", t.Ref)
				}
			}
			expr = append(expr, synth.Term{Factor: factor, Ref: synth.Var(t.Ref)})
		}
		eqs[synth.Var(v)] = expr
	}

	solved, err := synth.SolveEquations(eqs)
	ambiguous := false
	if err != nil {
		if !errors.Is(err, kernelerrors.ErrAmbiguousSolution) {
			return errToResult(err)
		}
		ambiguous = true
	}

	solutions := make(map[string]string, len(solved))
	for v, expr := range solved {
		solutions[string(v)] = expr.String()
	}

	return OK(SolveResponse{Solutions: solutions, Ambiguous: ambiguous}, "solved %d equations", len(eqs))
}

func (api *API) epSimplify(req *http.Request) Result {
	var body RegexRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}

	ast, err := regexast.Parse(body.Regex)
	if err != nil {
		return errToResult(err)
	}

	return OK(RegexResponse{Regex: regexast.Simplify(ast).String()}, "simplified regex")
}

// AcceptsRequest is the body of POST /ops/accepts. Word is the input as a
// sequence of alphabet symbols.
type AcceptsRequest struct {
	Automaton AutomatonModel `json:"automaton"`
	Word      []string       `json:"word"`
}

// AcceptsResponse reports whether the automaton recognizes the word.
type AcceptsResponse struct {
	Accepted bool `json:"accepted"`
}

func (api *API) epAccepts(req *http.Request) Result {
	var body AcceptsRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}

	a, err := body.Automaton.toKernel()
	if err != nil {
		return errToResult(err)
	}

	word := make([]kernel.Symbol, len(body.Word))
	for i, s := range body.Word {
		word[i] = kernel.Symbol(s)
	}

	return OK(AcceptsResponse{Accepted: kernel.Accepts(a, word)}, "simulated %d-symbol word", len(word))
}

// SavedAutomatonModel is the wire form of one stored automaton record.
type SavedAutomatonModel struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Created   int64          `json:"created"`
	Modified  int64          `json:"modified"`
	Automaton AutomatonModel `json:"automaton"`
}

func savedModelFrom(rec store.SavedAutomaton) SavedAutomatonModel {
	return SavedAutomatonModel{
		ID:        rec.ID.String(),
		Name:      rec.Name,
		Created:   rec.Created.Unix(),
		Modified:  rec.Modified.Unix(),
		Automaton: modelFromSpec(rec.Spec),
	}
}

// SaveAutomatonRequest is the body of POST /automata and PUT /automata/{id}.
type SaveAutomatonRequest struct {
	Name      string         `json:"name"`
	Automaton AutomatonModel `json:"automaton"`
}

func (api *API) epGetAllAutomata(req *http.Request) Result {
	all, err := api.Store.Automata().GetAll(req.Context())
	if err != nil {
		return errToResult(err)
	}

	models := make([]SavedAutomatonModel, len(all))
	for i, rec := range all {
		models[i] = savedModelFrom(rec)
	}
	return OK(models, "listed %d saved automata", len(models))
}

func (api *API) epGetAutomaton(req *http.Request) Result {
	id := requireIDParam(req)

	rec, err := api.Store.Automata().GetByID(req.Context(), id)
	if err != nil {
		return errToResult(err)
	}
	return OK(savedModelFrom(rec), "retrieved automaton %s", id)
}

func (api *API) epCreateAutomaton(req *http.Request) Result {
	var body SaveAutomatonRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}
	if body.Name == "" {
		return BadRequest("name: property is empty or missing from request", "empty name")
	}

	// validate before persisting; the store saves descriptions, not language
	// semantics, so this is the only gate.
	if _, err := body.Automaton.toKernel(); err != nil {
		return errToResult(err)
	}

	rec, err := api.Store.Automata().Create(req.Context(), body.Name, body.Automaton.toSpec())
	if err != nil {
		return errToResult(err)
	}
	return Created(savedModelFrom(rec), "created automaton %q as %s", rec.Name, rec.ID)
}

func (api *API) epUpdateAutomaton(req *http.Request) Result {
	id := requireIDParam(req)

	var body SaveAutomatonRequest
	if err := parseJSON(req, &body); err != nil {
		return errToResult(err)
	}
	if body.Name == "" {
		return BadRequest("name: property is empty or missing from request", "empty name")
	}
	if _, err := body.Automaton.toKernel(); err != nil {
		return errToResult(err)
	}

	rec, err := api.Store.Automata().Update(req.Context(), id, body.Name, body.Automaton.toSpec())
	if err != nil {
		return errToResult(err)
	}
	return OK(savedModelFrom(rec), "updated automaton %s", id)
}

func (api *API) epDeleteAutomaton(req *http.Request) Result {
	id := requireIDParam(req)

	rec, err := api.Store.Automata().Delete(req.Context(), id)
	if err != nil {
		return errToResult(err)
	}
	return OK(savedModelFrom(rec), "deleted automaton %q (%s)", rec.Name, id)
}
