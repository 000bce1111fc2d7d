// Package main is the counsel CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/hyperjump/counsel/internal/cli"
	"github.com/hyperjump/counsel/internal/client"
	"github.com/hyperjump/counsel/internal/config"
	"github.com/hyperjump/counsel/internal/server"
	"github.com/hyperjump/counsel/internal/session"
	"github.com/hyperjump/counsel/internal/tui"
	"github.com/hyperjump/counsel/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/counsel/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development), and a missing default
// file yields the built-in defaults. Returns the config and the path that was used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "ask":
		runAsk()
	case "document", "doc":
		runDocument()
	case "chat":
		runChat()
	case "web":
		runWeb()
	case "config":
		runConfig()
	case "version", "--version", "-v":
		fmt.Printf("counsel version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// argsReorder moves flags (and their values) found anywhere in args to the
// front so that fs.Parse() sees them, keeping the positional words in order.
// Go's flag package stops at the first non-flag argument, so
// `counsel ask who pays rent --output json` would otherwise leave --output unparsed.
// Everything after "--" stays positional.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	positional := make([]string, 0, len(args))
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			rest = args[i:]
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(flags) == 0 && rest == nil {
		return args
	}
	out := flags
	if rest != nil {
		out = append(out, "--")
		rest = rest[1:]
	}
	out = append(out, positional...)
	return append(out, rest...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// joinArgs joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// resolveBaseURL returns the service address: the --server flag when given,
// the configured one otherwise.
func resolveBaseURL(cfg *config.Config, override string) string {
	if s := strings.TrimSpace(override); s != "" {
		return strings.TrimRight(s, "/")
	}
	return cfg.API.BaseURL
}

func newClient(cfg *config.Config, serverURL string, logger *zap.Logger) *client.Client {
	opts := []client.Option{client.WithLogger(logger)}
	if cfg.API.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.API.Timeout))
	}
	return client.New(resolveBaseURL(cfg, serverURL), opts...)
}

// chatLogFile is where the terminal UI logs: log.file when set, otherwise
// counsel.log under the user cache directory.
func chatLogFile(cfg *config.Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "counsel", "counsel.log")
}

func rotateOptions(cfg *config.Config, file string) utils.RotateOptions {
	return utils.RotateOptions{
		File:       file,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
}

// newLogger logs to log.file when configured, to stderr otherwise.
func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	if cfg.Log.File != "" {
		return utils.NewFileLogger(debug, rotateOptions(cfg, cfg.Log.File))
	}
	return utils.NewLogger(debug)
}

func mustLoadConfig(path string) *config.Config {
	cfg, _, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func mustParseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: counsel ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces. Quoting is optional.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  counsel ask what is the termination notice period
  counsel ask "who bears the insurance cost" --output json
  counsel ask --server http://10.0.0.5:8000 indemnity cap
`)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "service URL (default from config)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one source per line), or json (parseable)")
	noColor := fs.Bool("no-color", false, "disable highlighting colors")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	question := joinArgs(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}
	format := mustParseFormat(*outputFormat)
	cfg := mustLoadConfig(*configPath)
	logger, err := newLogger(cfg, cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	answer, err := newClient(cfg, *serverURL, logger).Ask(ctx, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n%v\n", session.AskFailureText, err)
		os.Exit(1)
	}

	report := &cli.AnswerReport{Question: question, Answer: answer.Text, Sources: answer.Sources}
	opts := cli.Options{Color: !*noColor && !color.NoColor, Width: cfg.UI.WrapWidth}
	if err := cli.WriteAnswer(os.Stdout, report, format, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runDocument() {
	fs := flag.NewFlagSet("document", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "service URL (default from config)")
	query := fs.String("highlight", "", "mark occurrences of this text")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	noColor := fs.Bool("no-color", false, "disable highlighting colors")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: counsel document [flags] <name>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	name := joinArgs(fs.Args())
	if name == "" {
		fs.Usage()
		os.Exit(1)
	}
	format := mustParseFormat(*outputFormat)
	cfg := mustLoadConfig(*configPath)
	logger, err := newLogger(cfg, cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	doc, err := newClient(cfg, *serverURL, logger).FetchDocument(ctx, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n%v\n", session.DocumentFailureText, err)
		os.Exit(1)
	}

	opts := cli.Options{Color: !*noColor && !color.NoColor, Width: cfg.UI.WrapWidth}
	if err := cli.WriteDocument(os.Stdout, doc, *query, format, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "service URL (default from config)")
	logFile := fs.String("log-file", "", "log file (default from config, or counsel.log in the user cache directory)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg := mustLoadConfig(*configPath)
	file := chatLogFile(cfg)
	if *logFile != "" {
		file = *logFile
	}
	logger, err := utils.NewFileLogger(cfg.Debug || *debug, rotateOptions(cfg, file))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	api := newClient(cfg, *serverURL, logger)
	logger.Info("chat started", zap.String("base_url", api.BaseURL()))
	if err := tui.Run(tui.Config{
		API:     api,
		Session: session.New(),
		Logger:  logger,
		Context: context.Background(),
	}); err != nil {
		logger.Error("chat failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
}

func runWeb() {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "service URL (default from config)")
	host := fs.String("host", "", "listen host (default from config)")
	port := fs.Int("port", 0, "listen port (default from config)")
	debug := fs.Bool("debug", false, "enable debug logging (one line per request)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Web.Host = *host
	}
	if *port != 0 {
		cfg.Web.Port = *port
	}
	debugMode := cfg.Debug || *debug
	logger, err := newLogger(cfg, debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	api := newClient(cfg, *serverURL, logger)
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("base_url", api.BaseURL()),
		zap.Bool("debug", debugMode),
	)

	srv := server.NewServer(api, &cfg.Web, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// initConfig writes a config file holding the built-in defaults. An existing
// file is only replaced when force is set.
func initConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runConfig() {
	if len(os.Args) < 3 || os.Args[2] != "init" {
		fmt.Println("Usage: counsel config init [--config path] [--force]")
		os.Exit(1)
	}
	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	path := fs.String("config", "config.yaml", "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[3:])

	if err := initConfig(*path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Config init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", *path)
}

func printUsage() {
	fmt.Println(`counsel - Ask questions about your contracts

Usage:
  counsel ask [flags] <question>     Ask a question and print the answer with its evidence
  counsel document [flags] <name>    Print a full contract
  counsel chat [flags]               Start the interactive terminal UI
  counsel web [flags]                Start the browser UI
  counsel config init [flags]        Write a config file with the defaults
  counsel version                    Show version
  counsel help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/counsel/config.yaml, or ./config.yaml when present)
  --server string    Service URL (default from config, or http://localhost:8000)
  --debug            Enable debug logging

Ask Flags:
  --output string    Output format: text, compact, or json (default: text)
  --no-color         Disable highlighting colors

Document Flags:
  --highlight string Mark occurrences of this text
  --output string    Output format: text, compact, or json (default: text)
  --no-color         Disable highlighting colors

Chat Flags:
  --log-file string  Log file (the terminal belongs to the UI)

Web Flags:
  --host string      Listen host (default: localhost)
  --port int         Listen port (default: 5173)

Config Init Flags:
  --config string    Where to write the file (default: ./config.yaml)
  --force            Overwrite an existing file

Environment:
  COUNSEL_API_BASE_URL   Overrides api.base_url
  COUNSEL_DEBUG          Overrides debug

Examples:
  counsel ask what is the termination notice period
  counsel ask --output json "governing law"
  counsel document --highlight "notice" "lease 2024.pdf"
  counsel chat
  counsel web --port 8080
  counsel config init`)
}
