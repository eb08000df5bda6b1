package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"github.com/pontaoski/taipan/ast/yamltree"
	"github.com/pontaoski/taipan/checker"
	"github.com/pontaoski/taipan/codegen"
)

var log = commonlog.GetLogger("taipan.build")

const (
	exitUser      = 1
	exitInternal  = 2
	exitAssembler = 50
	exitLinker    = 51
)

// options is one run of the driver: the manifest with the flags laid over
// it.
type options struct {
	entry        string
	builtin      string
	output       string
	verbose      bool
	silent       bool
	debug        bool
	interpret    bool
	runAssembler bool
	library      bool
}

var sharedFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "builtin",
		Usage: "tree file of the builtin module",
	},
	&cli.BoolFlag{
		Name:  "verbose",
		Usage: "log progress and append a debug trailer to the IR",
	},
	&cli.BoolFlag{
		Name:  "silent",
		Usage: "log nothing, not even the commands that are run",
	},
	&cli.BoolFlag{
		Name:  "debug",
		Usage: "log everything and emit debug info when assembling",
	},
}

func driverOptions(c *cli.Context) (options, error) {
	m, err := loadManifest(".")
	if err != nil {
		return options{}, err
	}
	o := options{
		entry:        m.path(m.Entry),
		builtin:      m.path(m.Builtin),
		output:       m.path(m.Output),
		verbose:      c.Bool("verbose"),
		silent:       c.Bool("silent"),
		debug:        c.Bool("debug"),
		interpret:    c.Bool("interpret"),
		runAssembler: c.Bool("run-assembler"),
		library:      m.Library || c.Bool("library"),
	}
	if c.Args().Present() {
		o.entry = c.Args().First()
	}
	if o.entry == "" {
		o.entry = "main" + yamltree.Ext
	}
	if c.IsSet("builtin") {
		o.builtin = c.String("builtin")
	}
	if c.IsSet("output") {
		o.output = c.String("output")
	}
	if o.output == "" {
		o.output = m.Package
	}
	if o.output == "" {
		o.output = strings.TrimSuffix(filepath.Base(o.entry), yamltree.Ext)
	}
	return o, nil
}

func configureLogging(o options) {
	verbosity := 0
	switch {
	case o.silent:
		verbosity = -4
	case o.debug:
		verbosity = 2
	case o.verbose:
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)
}

// check loads and checks the program. Checker errors are printed here and
// turned into a user exit.
func check(o options, semantic bool) (*checker.Session, *checker.Checker, int, error) {
	m, ids, err := loadProgram(o.entry, o.builtin)
	if err != nil {
		return nil, nil, 0, cli.Exit(err, exitUser)
	}
	s := checker.NewSession()
	s.Semantic = semantic
	root, err := s.Check(m)
	if err != nil {
		fmt.Fprint(os.Stderr, s.Bin.Format())
		return s, root, 0, cli.Exit(fmt.Sprintf("%d errors in %s", len(s.Bin.Errors()), o.entry), exitUser)
	}
	log.Infof("checked %s", o.entry)
	return s, root, ids.Peek(), nil
}

func runCommand(o options, args ...string) int {
	if !o.silent {
		log.Noticef("[CMD] %s", strings.Join(args, " "))
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return exit.ExitCode()
		}
		log.Errorf("%s", err)
		return -1
	}
	return 0
}

// runAssembler turns the written IR into an object with clang, then links
// it into an executable or a shared library.
func runAssembler(o options) error {
	ll, obj := o.output+".ll", o.output+".o"
	args := []string{"clang", "-c", ll, "-o", obj}
	if o.library {
		args = append(args, "-fPIC")
	}
	if o.debug {
		args = append(args, "-g")
	}
	if code := runCommand(o, args...); code != 0 {
		return cli.Exit(fmt.Sprintf("ERROR: clang exited abnormally with exit code %d", code), exitAssembler)
	}

	link := []string{"clang", obj}
	if o.library {
		link = append(link, "-shared", "-o", o.output+".so")
	} else {
		link = append(link, "-o", o.output+".out")
	}
	if code := runCommand(o, link...); code != 0 {
		return cli.Exit(fmt.Sprintf("ERROR: linker exited abnormally with exit code %d", code), exitLinker)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "taipan",
		Usage: "taipan compiler",
		ExitErrHandler: func(context *cli.Context, err error) {
			var internal *codegen.InternalError
			if errors.As(err, &internal) {
				tracerr.PrintSourceColor(internal.Err)
				os.Exit(exitInternal)
			}
			cli.HandleExitCoder(err)
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "init a directory",
				ArgsUsage: "<package>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return cli.Exit("no package name provided", exitUser)
					}
					err := writeManifest(".", manifest{Package: name, Entry: "main" + yamltree.Ext})
					if err != nil {
						return cli.Exit(fmt.Sprintf("error creating %s: %s", yamlManifest, err), exitUser)
					}
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "type check a program",
				ArgsUsage: "[entry tree]",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "semantic",
						Usage: "print the semantic tokens of the entry module",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Usage: "print the decoded tree",
					},
				}, sharedFlags...),
				Action: func(c *cli.Context) error {
					o, err := driverOptions(c)
					if err != nil {
						return cli.Exit(err, exitUser)
					}
					configureLogging(o)
					_, root, _, err := check(o, c.Bool("semantic"))
					if root != nil && c.Bool("dump") {
						fmt.Println(root.Module)
					}
					if err != nil {
						return err
					}
					if c.Bool("semantic") {
						repr.Println(checker.Legend())
						repr.Println(checker.Encode(root.Tokens))
					}
					return nil
				},
			},
			{
				Name:      "build",
				Usage:     "build a program",
				ArgsUsage: "[entry tree]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output file, without extension",
					},
					&cli.BoolFlag{
						Name:  "interpret",
						Usage: "print the IR instead of writing it",
					},
					&cli.BoolFlag{
						Name:  "run-assembler",
						Value: true,
						Usage: "assemble and link the written IR with clang",
					},
					&cli.BoolFlag{
						Name:  "library",
						Usage: "build a shared library carrying its type information",
					},
				}, sharedFlags...),
				Action: func(c *cli.Context) error {
					o, err := driverOptions(c)
					if err != nil {
						return cli.Exit(err, exitUser)
					}
					configureLogging(o)
					s, _, lastID, err := check(o, false)
					if err != nil {
						return err
					}

					module, err := codegen.Generate(s, codegen.Options{
						Verbose: o.verbose,
						Library: o.library,
						LastID:  lastID,
					})
					if err != nil {
						return err
					}

					if o.interpret {
						fmt.Print(module)
						return nil
					}
					if err := os.WriteFile(o.output+".ll", []byte(module), 0644); err != nil {
						tracerr.PrintSourceColor(tracerr.Wrap(err))
						return cli.Exit("", exitUser)
					}
					if !o.runAssembler {
						return nil
					}
					return runAssembler(o)
				},
			},
			{
				Name:      "typeinfo",
				Usage:     "dump typeinfo from a built library",
				ArgsUsage: "<library>",
				Action: func(c *cli.Context) error {
					file := c.Args().Get(0)
					data, err := getTypeInfoFromFile(file)
					if err != nil {
						tracerr.PrintSourceColor(err)
						return cli.Exit("", exitUser)
					}
					repr.Println(data)
					return nil
				},
			},
		},
	}
	app.Run(os.Args)
}
