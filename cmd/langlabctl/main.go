/*
Langlabctl runs a single automaton or regex operation and exits, for use
from scripts and build pipelines where the interactive session is not
wanted.

Usage:

	langlabctl OPERATION [flags]

The operations are:

	determinize
		Subset construction over the automaton given with --file.

	minimize
		Partition-refinement minimization of the complete deterministic
		automaton given with --file.

	complete
		Add a sink state for every missing transition of the deterministic
		automaton given with --file.

	prune
		Drop unreachable and dead states of the automaton given with --file.

	complement
		Complement the automaton given with --file. With --auto, the input
		is determinized and completed first instead of rejected.

	product
		Product of the automata given with --file and --second, with the
		accept predicate selected by --mode.

	from-regex
		Build an automaton from the expression given with --regex, using the
		construction selected by --method.

	to-regex
		Synthesize a regular expression from the automaton given with
		--file by state elimination, and print it.

	accepts
		Run the word given with --word through the automaton given with
		--file; prints "accepted" or "rejected" and sets the exit code.

	solve
		Solve the regular-language equation system given with --equations
		and print one closed form per variable.

	simplify
		Algebraically simplify the expression given with --regex and print
		it.

Operations that produce an automaton print its transition table, or write a
description file instead when --out is given.

The flags are:

	-v, --version
		Give the current version of langlab and then exit.

	-f, --file FILE
		The automaton description file most operations read.

	-s, --second FILE
		The right-hand automaton for the product operation.

	-o, --out FILE
		Write the resulting automaton to FILE instead of printing it.

	-r, --regex EXPR
		The expression for from-regex and simplify.

	-m, --method METHOD
		Construction for from-regex: "fragment" or "position". Defaults to
		fragment.

	-M, --mode MODE
		Accept predicate for product: "intersection" or "union". Defaults
		to intersection.

	-a, --auto
		Allow complement to determinize and complete its input first.

	-w, --word WORD
		The input word for accepts, as space-separated symbols.

	-e, --equations FILE
		The equation-system file for solve.

	-t, --trace
		For determinize, print the subset each output state stands for.
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dekarrin/langlab/internal/afile"
	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/kernelerrors"
	"github.com/dekarrin/langlab/internal/regexast"
	"github.com/dekarrin/langlab/internal/render"
	"github.com/dekarrin/langlab/internal/synth"
	"github.com/dekarrin/langlab/internal/version"
	"github.com/spf13/pflag"
)

const (

	// ExitSuccess indicates a successful program execution. For the accepts
	// operation it additionally means the word was accepted.
	ExitSuccess = iota

	// ExitRejected indicates the accepts operation ran successfully and the
	// word was rejected.
	ExitRejected

	// ExitOpError indicates an unsuccessful program execution due to a
	// problem performing the requested operation.
	ExitOpError

	// ExitUsageError indicates an unsuccessful program execution due to a
	// missing or unknown operation or flag combination.
	ExitUsageError
)

var (
	returnCode  int     = ExitSuccess
	flagVersion *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	fileArg     *string = pflag.StringP("file", "f", "", "The automaton description file to operate on")
	secondArg   *string = pflag.StringP("second", "s", "", "The right-hand automaton file for product")
	outArg      *string = pflag.StringP("out", "o", "", "Write the resulting automaton to this file instead of printing it")
	regexArg    *string = pflag.StringP("regex", "r", "", "The expression for from-regex and simplify")
	methodArg   *string = pflag.StringP("method", "m", "fragment", "Construction for from-regex: fragment or position")
	modeArg     *string = pflag.StringP("mode", "M", "intersection", "Accept predicate for product: intersection or union")
	autoArg     *bool   = pflag.BoolP("auto", "a", false, "Allow complement to determinize and complete its input first")
	wordArg     *string = pflag.StringP("word", "w", "", "The input word for accepts, as space-separated symbols")
	eqArg       *string = pflag.StringP("equations", "e", "", "The equation-system file for solve")
	traceArg    *bool   = pflag.BoolP("trace", "t", false, "For determinize, print the subset each output state stands for")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "ERROR: exactly one operation must be given; see langlabctl --help\n")
		returnCode = ExitUsageError
		return
	}

	err := run(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		if returnCode == ExitSuccess {
			returnCode = ExitOpError
		}
		return
	}
}

func run(op string) error {
	switch op {
	case "determinize":
		a, err := loadInput()
		if err != nil {
			return err
		}
		det, trace := kernel.Determinize(a)
		if *traceArg {
			symtab := a.SymbolTable()
			detTab := det.SymbolTable()
			for i, subset := range trace.Subsets {
				names := make([]string, 0, subset.Len())
				for _, q := range subset.Sorted() {
					names = append(names, symtab.StateName(q))
				}
				fmt.Printf("%s <- {%s}\n", detTab.StateName(kernel.StateID(i)), strings.Join(names, ", "))
			}
		}
		return emit(det)
	case "minimize":
		a, err := loadInput()
		if err != nil {
			return err
		}
		min, err := kernel.Minimize(a)
		if err != nil {
			return err
		}
		return emit(min)
	case "complete":
		a, err := loadInput()
		if err != nil {
			return err
		}
		completed, err := kernel.Complete(a)
		if err != nil {
			return err
		}
		return emit(completed)
	case "prune":
		a, err := loadInput()
		if err != nil {
			return err
		}
		return emit(kernel.Prune(a))
	case "complement":
		a, err := loadInput()
		if err != nil {
			return err
		}
		comp, err := kernel.Complement(a, *autoArg)
		if err != nil {
			return err
		}
		return emit(comp)
	case "product":
		a, err := loadInput()
		if err != nil {
			return err
		}
		if *secondArg == "" {
			returnCode = ExitUsageError
			return fmt.Errorf("product needs a --second automaton file")
		}
		b, err := afile.Load(*secondArg)
		if err != nil {
			return err
		}
		var mode kernel.ProductMode
		switch *modeArg {
		case "intersection":
			mode = kernel.Intersection
		case "union":
			mode = kernel.Union
		default:
			returnCode = ExitUsageError
			return fmt.Errorf("--mode must be \"intersection\" or \"union\", not %q", *modeArg)
		}
		prod, err := kernel.Product(a, b, mode)
		if err != nil {
			return err
		}
		return emit(prod)
	case "from-regex":
		if *regexArg == "" {
			returnCode = ExitUsageError
			return fmt.Errorf("from-regex needs a --regex expression")
		}
		method, err := regexast.ParseMethod(*methodArg)
		if err != nil {
			returnCode = ExitUsageError
			return err
		}
		ast, err := regexast.Parse(*regexArg)
		if err != nil {
			return err
		}
		a, err := regexast.ToAutomaton(ast, method)
		if err != nil {
			return err
		}
		return emit(a)
	case "to-regex":
		a, err := loadInput()
		if err != nil {
			return err
		}
		fmt.Println(synth.AutomatonToRegex(a))
		return nil
	case "accepts":
		a, err := loadInput()
		if err != nil {
			return err
		}
		var word []kernel.Symbol
		for _, s := range strings.Fields(*wordArg) {
			word = append(word, kernel.Symbol(s))
		}
		if kernel.Accepts(a, word) {
			fmt.Println("accepted")
		} else {
			fmt.Println("rejected")
			returnCode = ExitRejected
		}
		return nil
	case "solve":
		if *eqArg == "" {
			returnCode = ExitUsageError
			return fmt.Errorf("solve needs an --equations file")
		}
		eqs, err := afile.LoadEquations(*eqArg)
		if err != nil {
			return err
		}
		solved, err := synth.SolveEquations(eqs)
		if err != nil {
			if !errors.Is(err, kernelerrors.ErrAmbiguousSolution) {
				return err
			}
			fmt.Fprintf(os.Stderr, "note: %s\n", err.Error())
		}
		var vars []string
		for v := range solved {
			vars = append(vars, string(v))
		}
		sort.Strings(vars)
		for _, v := range vars {
			fmt.Printf("%s = %s\n", v, solved[synth.Var(v)].String())
		}
		return nil
	case "simplify":
		if *regexArg == "" {
			returnCode = ExitUsageError
			return fmt.Errorf("simplify needs a --regex expression")
		}
		ast, err := regexast.Parse(*regexArg)
		if err != nil {
			return err
		}
		fmt.Println(regexast.Simplify(ast).String())
		return nil
	default:
		returnCode = ExitUsageError
		return fmt.Errorf("unknown operation %q; see langlabctl --help", op)
	}
}

func loadInput() (kernel.Automaton, error) {
	if *fileArg == "" {
		returnCode = ExitUsageError
		return kernel.Automaton{}, fmt.Errorf("this operation needs a --file automaton")
	}
	return afile.Load(*fileArg)
}

// emit prints or saves an operation's resulting automaton depending on
// --out.
func emit(a kernel.Automaton) error {
	if *outArg != "" {
		if err := afile.Save(*outArg, a); err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", render.Summary(a), *outArg)
		return nil
	}
	fmt.Println(render.Summary(a))
	fmt.Println(render.TransitionTable(a))
	return nil
}
