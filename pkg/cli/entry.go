// Package cli implements the minicc driver: it wires source through the
// lexer, parser and emitter, hands completed modules to the execution
// engine and invokes the synthetic entry function.
package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/minicc/internal/cache"
	"github.com/funvibe/minicc/internal/config"
	"github.com/funvibe/minicc/internal/emitter"
	"github.com/funvibe/minicc/internal/jit"
	"github.com/funvibe/minicc/internal/lexer"
	"github.com/funvibe/minicc/internal/parser"
	"github.com/funvibe/minicc/internal/pipeline"
)

type options struct {
	eval    string
	dumpIR  bool
	noCache bool
	cfgPath string
	engine  string
}

// Run is the CLI entry point. It returns the process exit code: 0 on
// success, non-zero on any parse, emit, verify or runtime error.
func Run(args []string) int {
	fs := flag.NewFlagSet("minicc", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts options
	fs.StringVar(&opts.eval, "e", "", "compile and run a one-line program")
	fs.BoolVar(&opts.dumpIR, "dump-ir", false, "print the emitted IR before execution")
	fs.BoolVar(&opts.noCache, "no-cache", false, "bypass the compiled-IR cache")
	fs.StringVar(&opts.cfgPath, "config", "", "path to minicc.yaml")
	fs.StringVar(&opts.engine, "engine", "", "execution engine")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(&opts, fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	engine := jit.New(cfg.Engine)
	defer engine.Close()
	registerEmbeddedFunctions(engine)

	if opts.eval != "" {
		return runUnit(engine, cfg, "<eval>", opts.eval)
	}

	if fs.NArg() > 0 {
		return runFiles(engine, cfg, &opts, fs.Args())
	}

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return runREPL(engine, cfg)
	}

	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return runUnit(engine, cfg, "<stdin>", string(source))
}

func loadConfig(opts *options, files []string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.cfgPath != "":
		cfg, err = config.Load(opts.cfgPath)
	case len(files) > 0:
		cfg, err = config.Discover(files[0])
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if opts.dumpIR {
		cfg.DumpIR = true
	}
	if opts.engine != "" {
		cfg.Engine = opts.engine
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

// registerEmbeddedFunctions installs the environment-provided externs.
func registerEmbeddedFunctions(engine jit.Engine) {
	engine.RegisterExtern(config.PrintFuncName, func(args []float64) float64 {
		var v float64
		if len(args) > 0 {
			v = args[0]
		}
		fmt.Printf("print: %f\n", v)
		return v
	})
}

func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func runFiles(engine jit.Engine, cfg *config.Config, opts *options, files []string) int {
	var store *cache.Store
	if cfg.Cache.Enabled && cfg.Cache.Path != "" {
		var err error
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open cache: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	for _, path := range files {
		if !isSourceFile(path) {
			fmt.Fprintf(os.Stderr, "Error: %s is not a source file\n", path)
			return 1
		}
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if code := runFileUnit(engine, cfg, store, path, string(source)); code != 0 {
			return code
		}
	}
	return 0
}

// runFileUnit compiles one file, consulting the cache first.
func runFileUnit(engine jit.Engine, cfg *config.Config, store *cache.Store, path, source string) int {
	if store != nil {
		hash := cache.Key(source)
		if irText, ok, err := store.Get(hash); err == nil && ok {
			module, err := asm.ParseString(path, irText)
			if err == nil {
				return executeModule(engine, cfg, module, entryOf(module))
			}
			// A stale or unreadable entry falls through to a fresh compile.
		}
	}

	ctx := compile(path, source)
	if ctx.HasErrors() {
		reportErrors(ctx)
		return 1
	}

	if store != nil {
		if err := store.Put(cache.Key(source), ctx.UnitID.String(), ctx.Module.String()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot update cache: %v\n", err)
		}
	}
	return executeModule(engine, cfg, ctx.Module, ctx.EntryName)
}

func runUnit(engine jit.Engine, cfg *config.Config, path, source string) int {
	ctx := compile(path, source)
	if ctx.HasErrors() {
		reportErrors(ctx)
		return 1
	}
	return executeModule(engine, cfg, ctx.Module, ctx.EntryName)
}

// compile runs the lexer, parser and emitter over one unit.
func compile(path, source string) *pipeline.PipelineContext {
	ctx := pipeline.NewContext(path, source)
	pipe := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&emitter.EmitterProcessor{},
	)
	return pipe.Run(ctx)
}

func reportErrors(ctx *pipeline.PipelineContext) {
	source := []byte(ctx.SourceCode)
	for _, diag := range ctx.Errors {
		fmt.Fprintln(os.Stderr, diag.Annotate(source))
	}
}

// executeModule hands the module to the engine and invokes the entry
// function when the unit has one.
func executeModule(engine jit.Engine, cfg *config.Config, module *ir.Module, entryName string) int {
	if cfg.DumpIR {
		fmt.Print(module.String())
	}
	if err := engine.AddModule(module); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if entryName == "" {
		return 0
	}
	entry, ok := engine.Lookup(entryName)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: undefined reference: '%s'\n", entryName)
		return 1
	}
	result, err := entry.Call()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("result=%g\n", result)
	return 0
}

// entryOf finds the synthetic entry function in a re-parsed cached module.
func entryOf(module *ir.Module) string {
	for _, fn := range module.Funcs {
		if fn.Name() == config.EntryFuncName && len(fn.Blocks) > 0 {
			return config.EntryFuncName
		}
	}
	return ""
}

// runREPL compiles one line at a time against a shared engine. Errors are
// fatal for the line, not the session.
func runREPL(engine jit.Engine, cfg *config.Config) int {
	fmt.Println("minicc repl; type exit to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			fmt.Println()
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return 0
		}
		runUnit(engine, cfg, "<repl>", line)
	}
}
