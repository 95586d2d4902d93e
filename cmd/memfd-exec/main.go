package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/containerd/log"
	"github.com/docker/go-units"
	"github.com/moby/memfd/memexec"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	name      string
	digest    digest.Digest
	maxSize   string
	noSeal    bool
	wait      bool
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "memfd-exec [OPTIONS] FILE|- [ARG...]",
		Short:         "Run a program from sealed anonymous memory, without it touching the filesystem",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat); err != nil {
				return err
			}
			return run(cmd.Context(), opts, args)
		},
	}

	flags := cmd.Flags()
	// Flags after the payload path belong to the payload.
	flags.SetInterspersed(false)
	flags.StringVar(&opts.name, "name", "", "Label for the in-memory file (default: the payload file name)")
	flags.Var(&digestValue{&opts.digest}, "digest", `Expected payload digest (e.g. "sha256:..."); refuse to run on mismatch`)
	flags.StringVar(&opts.maxSize, "max-size", "", `Maximum payload size (e.g. "64MB")`)
	flags.BoolVar(&opts.noSeal, "no-seal", false, "Skip sealing the payload before running it")
	flags.BoolVar(&opts.wait, "wait", false, "Run the payload as a child process and propagate its exit code instead of replacing this process")
	flags.StringVar(&opts.logLevel, "log-level", "warn", `Logging level ("trace"|"debug"|"info"|"warn"|"error"|"fatal")`)
	flags.StringVar(&opts.logFormat, "log-format", string(log.TextFormat), fmt.Sprintf(`Logging format ("%s"|"%s")`, log.TextFormat, log.JSONFormat))

	return cmd
}

func initLogging(stderr io.Writer, level, format string) error {
	logrus.SetOutput(stderr)
	if err := log.SetLevel(level); err != nil {
		return err
	}
	return log.SetFormat(log.OutputFormat(format))
}

// loadOptions translates command line flags into memexec options. The
// payload argument is only used to derive a default label.
func loadOptions(opts options, payload string) (memexec.Options, error) {
	lo := memexec.Options{
		Name:   opts.name,
		Digest: opts.digest,
		NoSeal: opts.noSeal,
	}
	if lo.Name == "" {
		if payload == "-" {
			lo.Name = "memfd-exec"
		} else {
			lo.Name = filepath.Base(payload)
		}
	}
	if opts.maxSize != "" {
		size, err := units.RAMInBytes(opts.maxSize)
		if err != nil {
			return memexec.Options{}, errors.Wrap(err, "invalid --max-size")
		}
		lo.MaxBytes = size
	}
	return lo, nil
}

func run(ctx context.Context, opts options, args []string) error {
	payload := args[0]

	in := io.Reader(os.Stdin)
	if payload != "-" {
		f, err := os.Open(payload)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	lo, err := loadOptions(opts, payload)
	if err != nil {
		return err
	}

	e, err := memexec.Load(ctx, in, lo)
	if err != nil {
		return err
	}
	defer e.Close()
	log.G(ctx).WithFields(log.Fields{
		"name": lo.Name,
		"size": units.HumanSize(float64(e.Size())),
	}).Debug("payload loaded")

	argv := append([]string{lo.Name}, args[1:]...)

	if opts.wait {
		cmd := e.Command(ctx, argv...)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
		if payload == "-" {
			// Stdin carried the payload; there is nothing left on it
			// worth handing to the child.
			cmd.Stdin = nil
		}
		err := cmd.Run()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.Exited() {
			return statusError{code: exitErr.ExitCode()}
		}
		return err
	}
	return e.Exec(argv, os.Environ())
}

// statusError carries a child exit code through RunE up to main without
// dressing it up as a new error message.
type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		var se statusError
		if errors.As(err, &se) {
			os.Exit(se.code)
		}
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
