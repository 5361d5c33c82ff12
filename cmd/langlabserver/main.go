/*
Langlabserver starts the langlab HTTP API server.

It opens the saved-automaton store named by the configuration file, mounts
the JSON API, and serves until interrupted. The configuration file must set
a session secret and an operator password; the server refuses to start
without them rather than run with writes open to anyone.

Usage:

	langlabserver [flags]

The flags are:

	-v, --version
		Give the current version of langlab and then exit.

	--config FILE
		Use the provided TOML configuration file. Defaults to
		"langlab.toml" in the current working directory.

	-l, --listen ADDR
		Listen on the given address, overriding the configuration file.
		Defaults to ":8080" when neither is set.
*/
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dekarrin/langlab/internal/config"
	"github.com/dekarrin/langlab/internal/store"
	"github.com/dekarrin/langlab/internal/version"
	"github.com/dekarrin/langlab/server/httpapi"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitServeError indicates an unsuccessful program execution due to a
	// problem while serving.
	ExitServeError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the server.
	ExitInitError
)

const defaultListenAddr = ":8080"

var (
	returnCode  int     = ExitSuccess
	flagVersion *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	configFile  *string = pflag.String("config", "langlab.toml", "TOML configuration file")
	listenAddr  *string = pflag.StringP("listen", "l", "", "Listen address, overriding the configuration file")
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

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	if cfg.Server.Secret == "" {
		fmt.Fprintf(os.Stderr, "ERROR: configuration must set server.secret\n")
		returnCode = ExitInitError
		return
	}
	if cfg.Server.Password == "" {
		fmt.Fprintf(os.Stderr, "ERROR: configuration must set server.password\n")
		returnCode = ExitInitError
		return
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Server.Password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: hash operator password: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	var st store.Store
	switch cfg.Store.Kind {
	case config.StoreKindSQLite:
		st, err = store.NewSQLiteStore(cfg.Store.Dir)
	case config.StoreKindMemory:
		st = store.NewInMemoryStore()
	default:
		err = fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: open store: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer st.Close()

	api, err := httpapi.New(st, []byte(cfg.Server.Secret), passHash, 1*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	addr := *listenAddr
	if addr == "" {
		addr = cfg.Server.ListenAddr
	}
	if addr == "" {
		addr = defaultListenAddr
	}

	root := chi.NewRouter()
	root.Mount(httpapi.PathPrefix, api.Routes())

	log.Printf("INFO  listening on %s", addr)
	err = http.ListenAndServe(addr, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitServeError
		return
	}
}
