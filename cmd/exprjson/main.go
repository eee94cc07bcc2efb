package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hengadev/exprjson"
	"github.com/hengadev/exprjson/internal/document"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	var err error
	command := os.Args[1]
	switch command {
	case "check":
		err = checkCommand(ctx, os.Args[2:], os.Stdout)
	case "fmt":
		err = fmtCommand(os.Args[2:], os.Stdout)
	case "put":
		err = putCommand(ctx, os.Args[2:], os.Stdout)
	case "get":
		err = getCommand(ctx, os.Args[2:], os.Stdout)
	case "list":
		err = listCommand(ctx, os.Args[2:], os.Stdout)
	case "delete":
		err = deleteCommand(ctx, os.Args[2:], os.Stdout)
	case "init":
		err = initCommand(os.Args[2:], os.Stdout)
	case "version":
		versionCommand(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		if path := exprjson.ErrorPath(err); path != "" {
			fmt.Fprintf(os.Stderr, "  at %s\n", path)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  check    Decode documents and report errors\n")
	fmt.Fprintf(os.Stderr, "  fmt      Rewrite a document with the configured indent\n")
	fmt.Fprintf(os.Stderr, "  put      Check a document and store it under a key\n")
	fmt.Fprintf(os.Stderr, "  get      Print the document stored under a key\n")
	fmt.Fprintf(os.Stderr, "  list     List stored keys with an optional prefix\n")
	fmt.Fprintf(os.Stderr, "  delete   Remove a stored document\n")
	fmt.Fprintf(os.Stderr, "  init     Initialize configuration file\n")
	fmt.Fprintf(os.Stderr, "  version  Show version information\n")
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -h' for help on a specific command.\n", os.Args[0])
}

// session holds what every command works with once flags are parsed.
type session struct {
	cfg    *Config
	codec  *exprjson.Codec
	logger *exprjson.StructuredLogger
}

func newSession(configPath string, verbose bool) (*session, error) {
	cfg, err := ResolveConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := exprjson.NewProductionLogger("cli")
	opts := []exprjson.Option{}
	if verbose {
		opts = append(opts, exprjson.WithObservabilityHook(exprjson.NewLoggingObservabilityHook(logger)))
	}
	codec, err := exprjson.NewFromConfig(cfg.Config, opts...)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, codec: codec, logger: logger}, nil
}

func (s *session) withStore(ctx context.Context, fn func(exprjson.DocumentStore) error) error {
	store, closeStore, err := openStore(ctx, s.cfg.Store, s.logger)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}

func commonFlags(fs *flag.FlagSet) (configPath *string, verbose *bool) {
	configPath = fs.String("config", "", "Path to configuration file (default exprjson.yaml when present)")
	verbose = fs.Bool("v", false, "Log every codec operation")
	return configPath, verbose
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func checkCommand(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath, verbose := commonFlags(fs)
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		return errors.New("at least one file is required")
	}
	s, err := newSession(*configPath, *verbose)
	if err != nil {
		return err
	}

	failed := 0
	for _, file := range files {
		data, err := readInput(file)
		if err != nil {
			return err
		}
		expr, err := s.codec.Decode(ctx, bytes.NewReader(data))
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %s of type %s\n", file, expr.Kind(), s.codec.TypeName(expr.Type()))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

// fmtCommand reindents a document without resolving its types, so documents
// naming types this binary does not know can still be formatted.
func fmtCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	configPath, _ := commonFlags(fs)
	indent := fs.String("indent", "", "Indent override: a width, \"tab\", or \"0\" for compact")
	write := fs.Bool("w", false, "Write the result back to the file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("exactly one file is required")
	}
	file := fs.Arg(0)

	cfg, err := ResolveConfig(*configPath)
	if err != nil {
		return err
	}
	if *indent != "" {
		cfg.Indent = *indent
	}
	unit, err := exprjson.ParseIndent(cfg.Indent)
	if err != nil {
		return err
	}

	data, err := readInput(file)
	if err != nil {
		return err
	}
	root, err := document.Parse(data, document.ParseOptions{AllowTrailingCommas: cfg.AllowTrailingCommas})
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := root.Write(&buf, document.WriteOptions{Indent: unit}); err != nil {
		return err
	}
	if unit == "" {
		buf.WriteByte('\n')
	}

	if *write && file != "-" {
		return os.WriteFile(file, buf.Bytes(), 0644)
	}
	_, err = out.Write(buf.Bytes())
	return err
}

func putCommand(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	configPath, verbose := commonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 2 {
		return errors.New("usage: put <key> <file>")
	}
	key, file := fs.Arg(0), fs.Arg(1)

	s, err := newSession(*configPath, *verbose)
	if err != nil {
		return err
	}
	data, err := readInput(file)
	if err != nil {
		return err
	}
	expr, err := s.codec.Decode(ctx, bytes.NewReader(data))
	if err != nil {
		return err
	}
	return s.withStore(ctx, func(store exprjson.DocumentStore) error {
		if err := s.codec.Save(ctx, store, key, expr); err != nil {
			return err
		}
		fmt.Fprintf(out, "Stored %s\n", key)
		return nil
	})
}

func getCommand(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	configPath, verbose := commonFlags(fs)
	raw := fs.Bool("raw", false, "Print the stored bytes without decoding")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: get <key>")
	}
	key := fs.Arg(0)

	s, err := newSession(*configPath, *verbose)
	if err != nil {
		return err
	}
	return s.withStore(ctx, func(store exprjson.DocumentStore) error {
		if *raw {
			data, err := store.Get(ctx, key)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}
		expr, err := s.codec.Load(ctx, store, key)
		if err != nil {
			return err
		}
		if err := s.codec.Encode(ctx, out, expr); err != nil {
			return err
		}
		_, err = fmt.Fprintln(out)
		return err
	})
}

func listCommand(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath, verbose := commonFlags(fs)
	fs.Parse(args)

	s, err := newSession(*configPath, *verbose)
	if err != nil {
		return err
	}
	return s.withStore(ctx, func(store exprjson.DocumentStore) error {
		keys, err := store.List(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(out, key)
		}
		return nil
	})
}

func deleteCommand(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath, verbose := commonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: delete <key>")
	}
	s, err := newSession(*configPath, *verbose)
	if err != nil {
		return err
	}
	return s.withStore(ctx, func(store exprjson.DocumentStore) error {
		if err := store.Delete(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s\n", fs.Arg(0))
		return nil
	})
}

func initCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration file")
	fs.Parse(args)

	if !*force {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			return fmt.Errorf("configuration file %s already exists, use -force to overwrite", defaultConfigPath)
		}
	}

	fmt.Fprintf(out, "Creating configuration file at %s...\n", defaultConfigPath)
	if err := SaveConfig(DefaultConfig(), defaultConfigPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintln(out, "Configuration file created!")
	return nil
}

func versionCommand(out io.Writer) {
	info := exprjson.FullVersionInfo()
	fmt.Fprintf(out, "exprjson %s\n", info)
	fmt.Fprintln(out, "Expression tree codec for JSON documents")
	fmt.Fprintf(out, "Schema: %s\n", info.Schema)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Supported stores: sqlite, s3")
	fmt.Fprintln(out, "Supported object formats: json, gob")
}
