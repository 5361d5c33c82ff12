// Package langlab contains a CLI-driven session for exploring finite
// automata and regular languages interactively: reading commands
// continuously, applying kernel operations to a working automaton, and
// printing the results until the user quits.
package langlab

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dekarrin/langlab/internal/afile"
	"github.com/dekarrin/langlab/internal/config"
	"github.com/dekarrin/langlab/internal/input"
	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/kernelerrors"
	"github.com/dekarrin/langlab/internal/regexast"
	"github.com/dekarrin/langlab/internal/render"
	"github.com/dekarrin/langlab/internal/store"
	"github.com/dekarrin/langlab/internal/synth"
	"github.com/dekarrin/rosed"
)

const consoleOutputWidth = 80

// Session contains the things needed to run an interactive automaton
// workbench attached to an input stream and an output stream. It keeps one
// working automaton that most commands read and replace.
type Session struct {
	cur     *kernel.Automaton
	st      store.Store
	in      *input.CommandReader
	out     *bufio.Writer
	running bool
}

// New creates a new Session ready to operate on the given input and output
// streams. If nil is given for the input stream, commands are read from
// stdin; if nil is given for the output stream, a buffered writer is opened
// on stdout. The saved-automaton store named by the config file at
// configPath (or the in-memory default, if configPath is empty) backs the
// STORE commands.
func New(inputStream io.Reader, outputStream io.Writer, configPath string, forceDirectInput bool) (*Session, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	ses := &Session{
		st:  st,
		out: bufio.NewWriter(outputStream),
	}

	ses.in, err = input.NewReader(inputStream, outputStream, "langlab> ", forceDirectInput)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("initializing command reader: %w", err)
	}

	return ses, nil
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreKindSQLite:
		return store.NewSQLiteStore(cfg.Store.Dir)
	case config.StoreKindMemory:
		return store.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

// Close closes all resources associated with the Session, including any
// readline-related resources created for interactive mode and the
// saved-automaton store.
func (ses *Session) Close() error {
	if ses.running {
		return fmt.Errorf("cannot close a running session")
	}

	var errs []error
	if err := ses.in.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close command reader: %w", err))
	}
	if err := ses.st.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// RunUntilQuit begins reading commands from the stream and applying them to
// the working automaton until the QUIT command is received. startCommands,
// if any, are executed first as though the user had typed them.
func (ses *Session) RunUntilQuit(startCommands []string) error {
	introMsg := "langlab interactive session\n"
	if !ses.in.Interactive() {
		introMsg += "(direct input mode)\n"
	}
	introMsg += "===========================\n"
	introMsg += "Type HELP for a list of commands; QUIT exits.\n\n"

	if _, err := ses.out.WriteString(introMsg); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := ses.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}

	ses.running = true
	// so we dont have to remember to do this on every returned error
	// condition
	defer func() {
		ses.running = false
	}()

	for _, cmd := range startCommands {
		if !ses.dispatch(strings.TrimSpace(cmd)) {
			return nil
		}
	}

	for ses.running {
		line, err := ses.in.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("get user command: %w", err)
		}

		if !ses.dispatch(line) {
			break
		}
	}

	return nil
}

// dispatch runs one command line. Returns false when the session should
// end.
func (ses *Session) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	verb := strings.ToUpper(fields[0])
	args := fields[1:]

	var err error
	switch verb {
	case "QUIT", "EXIT":
		ses.running = false
		return false
	case "HELP":
		ses.writef("%s\n", helpText())
	case "LOAD":
		err = ses.cmdLoad(args)
	case "SAVE":
		err = ses.cmdSave(args)
	case "SHOW":
		err = ses.cmdShow()
	case "SUMMARY":
		err = ses.cmdSummary()
	case "REGEX":
		err = ses.cmdRegex(args)
	case "DETERMINIZE":
		err = ses.cmdDeterminize(args)
	case "MINIMIZE":
		err = ses.cmdMinimize()
	case "COMPLETE":
		err = ses.cmdComplete()
	case "PRUNE":
		err = ses.cmdPrune()
	case "COMPLEMENT":
		err = ses.cmdComplement(args)
	case "PRODUCT":
		err = ses.cmdProduct(args)
	case "TOREGEX":
		err = ses.cmdToRegex()
	case "SIMPLIFY":
		err = ses.cmdSimplify(args)
	case "ACCEPTS":
		err = ses.cmdAccepts(args)
	case "SOLVE":
		err = ses.cmdSolve(args)
	case "STORE":
		err = ses.cmdStore(args)
	default:
		err = fmt.Errorf("unknown command %q; type HELP for a list", verb)
	}

	if err != nil {
		ses.writef("ERROR: %s\n", err.Error())
	}
	return true
}

func (ses *Session) writef(format string, a ...interface{}) {
	fmt.Fprintf(ses.out, format, a...)
	ses.out.Flush()
}

func (ses *Session) current() (kernel.Automaton, error) {
	if ses.cur == nil {
		return kernel.Automaton{}, fmt.Errorf("no working automaton; LOAD a file, REGEX an expression, or STORE LOAD a saved one first")
	}
	return *ses.cur, nil
}

func (ses *Session) setCurrent(a kernel.Automaton) {
	ses.cur = &a
	ses.writef("%s\n", render.Summary(a))
}

func (ses *Session) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: LOAD <file>")
	}
	a, err := afile.Load(args[0])
	if err != nil {
		return err
	}
	ses.setCurrent(a)
	return nil
}

func (ses *Session) cmdSave(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: SAVE <file>")
	}
	a, err := ses.current()
	if err != nil {
		return err
	}
	if err := afile.Save(args[0], a); err != nil {
		return err
	}
	ses.writef("saved to %s\n", args[0])
	return nil
}

func (ses *Session) cmdShow() error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	ses.writef("%s\n", render.TransitionTable(a))
	return nil
}

func (ses *Session) cmdSummary() error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	ses.writef("%s\n", render.Summary(a))
	return nil
}

func (ses *Session) cmdRegex(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: REGEX <fragment|position> <expression>")
	}
	method, err := regexast.ParseMethod(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	ast, err := regexast.Parse(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a, err := regexast.ToAutomaton(ast, method)
	if err != nil {
		return err
	}
	ses.setCurrent(a)
	return nil
}

func (ses *Session) cmdDeterminize(args []string) error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	det, trace := kernel.Determinize(a)
	if len(args) == 1 && strings.ToUpper(args[0]) == "TRACE" {
		symtab := a.SymbolTable()
		detTab := det.SymbolTable()
		for i, subset := range trace.Subsets {
			names := make([]string, 0, subset.Len())
			for _, q := range subset.Sorted() {
				names = append(names, symtab.StateName(q))
			}
			ses.writef("%s <- {%s}\n", detTab.StateName(kernel.StateID(i)), strings.Join(names, ", "))
		}
	}
	ses.setCurrent(det)
	return nil
}

func (ses *Session) cmdMinimize() error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	min, err := kernel.Minimize(a)
	if err != nil {
		if errors.Is(err, kernelerrors.ErrNotComplete) {
			return fmt.Errorf("%w; run DETERMINIZE and COMPLETE first", err)
		}
		return err
	}
	ses.setCurrent(min)
	return nil
}

func (ses *Session) cmdComplete() error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	completed, report, err := kernel.CompleteReport(a)
	if err != nil {
		return err
	}
	if report.WasAlreadyComplete {
		ses.writef("already complete\n")
	} else if report.SinkAdded {
		ses.writef("added a sink state\n")
	}
	ses.setCurrent(completed)
	return nil
}

func (ses *Session) cmdPrune() error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	ses.setCurrent(kernel.Prune(a))
	return nil
}

func (ses *Session) cmdComplement(args []string) error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	auto := len(args) == 1 && strings.ToUpper(args[0]) == "AUTO"
	comp, err := kernel.Complement(a, auto)
	if err != nil {
		if errors.Is(err, kernelerrors.ErrNotDeterministic) || errors.Is(err, kernelerrors.ErrNotComplete) {
			return fmt.Errorf("%w; use COMPLEMENT AUTO to determinize and complete first", err)
		}
		return err
	}
	ses.setCurrent(comp)
	return nil
}

func (ses *Session) cmdProduct(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: PRODUCT <INTERSECTION|UNION> <file>")
	}
	var mode kernel.ProductMode
	switch strings.ToUpper(args[0]) {
	case "INTERSECTION":
		mode = kernel.Intersection
	case "UNION":
		mode = kernel.Union
	default:
		return fmt.Errorf("product mode must be INTERSECTION or UNION")
	}

	a, err := ses.current()
	if err != nil {
		return err
	}
	b, err := afile.Load(args[1])
	if err != nil {
		return err
	}

	prod, err := kernel.Product(a, b, mode)
	if err != nil {
		return err
	}
	ses.setCurrent(prod)
	return nil
}

func (ses *Session) cmdToRegex() error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	ses.writef("%s\n", synth.AutomatonToRegex(a))
	return nil
}

func (ses *Session) cmdSimplify(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: SIMPLIFY <expression>")
	}
	ast, err := regexast.Parse(strings.Join(args, " "))
	if err != nil {
		return err
	}
	ses.writef("%s\n", regexast.Simplify(ast).String())
	return nil
}

func (ses *Session) cmdAccepts(args []string) error {
	a, err := ses.current()
	if err != nil {
		return err
	}
	word := make([]kernel.Symbol, len(args))
	for i, s := range args {
		word[i] = kernel.Symbol(s)
	}
	if kernel.Accepts(a, word) {
		ses.writef("accepted\n")
	} else {
		ses.writef("rejected\n")
	}
	return nil
}

func (ses *Session) cmdSolve(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: SOLVE <file>")
	}
	eqs, err := afile.LoadEquations(args[0])
	if err != nil {
		return err
	}

	solved, err := synth.SolveEquations(eqs)
	if err != nil {
		if !errors.Is(err, kernelerrors.ErrAmbiguousSolution) {
			return err
		}
		ses.writef("note: %s\n", err.Error())
	}

	vars := make([]string, 0, len(solved))
	for v := range solved {
		vars = append(vars, string(v))
	}
	sort.Strings(vars)
	for _, v := range vars {
		ses.writef("%s = %s\n", v, solved[synth.Var(v)].String())
	}
	return nil
}

func (ses *Session) cmdStore(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: STORE <LIST|LOAD|SAVE|DELETE> [name]")
	}

	ctx := context.Background()
	repo := ses.st.Automata()

	switch strings.ToUpper(args[0]) {
	case "LIST":
		all, err := repo.GetAll(ctx)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			ses.writef("no saved automata\n")
			return nil
		}
		for _, rec := range all {
			ses.writef("%s  (%s)\n", rec.Name, rec.ID)
		}
		return nil
	case "LOAD":
		if len(args) != 2 {
			return fmt.Errorf("usage: STORE LOAD <name>")
		}
		rec, err := repo.GetByName(ctx, args[1])
		if err != nil {
			return err
		}
		a, err := rec.Spec.ToAutomaton()
		if err != nil {
			return err
		}
		ses.setCurrent(a)
		return nil
	case "SAVE":
		if len(args) != 2 {
			return fmt.Errorf("usage: STORE SAVE <name>")
		}
		a, err := ses.current()
		if err != nil {
			return err
		}
		spec := store.ToSpec(a)
		if existing, err := repo.GetByName(ctx, args[1]); err == nil {
			_, err = repo.Update(ctx, existing.ID, args[1], spec)
			if err != nil {
				return err
			}
			ses.writef("updated %q\n", args[1])
			return nil
		}
		rec, err := repo.Create(ctx, args[1], spec)
		if err != nil {
			return err
		}
		ses.writef("saved %q as %s\n", rec.Name, rec.ID)
		return nil
	case "DELETE":
		if len(args) != 2 {
			return fmt.Errorf("usage: STORE DELETE <name>")
		}
		rec, err := repo.GetByName(ctx, args[1])
		if err != nil {
			return err
		}
		if _, err := repo.Delete(ctx, rec.ID); err != nil {
			return err
		}
		ses.writef("deleted %q\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown STORE subcommand %q", args[0])
	}
}

// helpText builds the HELP output, reflowed to the console width.
func helpText() string {
	raw := "Commands operate on a single working automaton, set by LOAD, REGEX, or STORE LOAD and replaced by each transformation.\n" +
		"\n" +
		"LOAD <file> - load an automaton description file\n" +
		"SAVE <file> - write the working automaton to a file\n" +
		"SHOW - print the working automaton's transition table\n" +
		"SUMMARY - one-line description of the working automaton\n" +
		"REGEX <fragment|position> <expr> - build an automaton from a regex\n" +
		"DETERMINIZE [TRACE] - subset construction; TRACE prints each subset\n" +
		"MINIMIZE - partition-refinement minimization (needs complete DFA)\n" +
		"COMPLETE - add a sink state for missing transitions\n" +
		"PRUNE - drop unreachable and dead states\n" +
		"COMPLEMENT [AUTO] - swap accepting states; AUTO prepares first\n" +
		"PRODUCT <INTERSECTION|UNION> <file> - product with a second automaton\n" +
		"TOREGEX - synthesize a regex by state elimination\n" +
		"SIMPLIFY <expr> - algebraically simplify a regex\n" +
		"ACCEPTS <sym> <sym> ... - run a word through the working automaton\n" +
		"SOLVE <file> - solve a regular-language equation system\n" +
		"STORE LIST|LOAD <name>|SAVE <name>|DELETE <name> - saved automata\n" +
		"QUIT - exit the session\n"

	return rosed.Edit(raw).
		WithOptions(rosed.Options{
			PreserveParagraphs: true,
			ParagraphSeparator: "\n",
		}).
		Wrap(consoleOutputWidth).
		String()
}
