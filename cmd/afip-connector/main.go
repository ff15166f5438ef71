// Package main provides the AFIP connector CLI for automated tax portal
// access. It logs in to the portal (resolving captchas through configured
// solver services), retrieves pending payments and account statements, and
// reports solver health, suitable for cron-driven batch runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fiscal-ar/afip-connector/pkg/browser"
	"github.com/fiscal-ar/afip-connector/pkg/captcha"
	appconfig "github.com/fiscal-ar/afip-connector/pkg/config"
	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/connector/afip/session"
	"github.com/fiscal-ar/afip-connector/pkg/logging"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
	afiptools "github.com/fiscal-ar/afip-connector/pkg/tools/afip"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	CUIT            string
	Password        string
	Operation       string
	ConfigFile      string
	RunFile         string
	PeriodFrom      string
	PeriodTo        string
	CalculationDate string
	ScreenshotDir   string
	OutputFile      string
	ToolCallFile    string
	ForceHeadless   bool
	Timeout         time.Duration
	ShowVersion     bool
}

// RunConfig is a YAML run description, an alternative to passing everything
// on the command line.
type RunConfig struct {
	CUIT            string `yaml:"cuit"`
	Password        string `yaml:"password"`
	Operation       string `yaml:"operation"`
	PeriodFrom      string `yaml:"period_from"`
	PeriodTo        string `yaml:"period_to"`
	CalculationDate string `yaml:"calculation_date"`
	ScreenshotDir   string `yaml:"screenshot_dir"`
	Output          string `yaml:"output"`
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("afip-connector v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		cancel()
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.CUIT, "cuit", os.Getenv("AFIP_CUIT"), "Taxpayer CUIT (or AFIP_CUIT)")
	flag.StringVar(&config.Password, "password", os.Getenv("AFIP_PASSWORD"), "Clave Fiscal password (or AFIP_PASSWORD)")
	flag.StringVar(&config.Operation, "op", "login", "Operation: login, payments, statement, status, logout")
	flag.StringVar(&config.ConfigFile, "config", "", "Path to application config file (JSON)")
	flag.StringVar(&config.RunFile, "run", "", "Path to run description file (YAML)")
	flag.StringVar(&config.PeriodFrom, "period-from", "", "Statement start period, MM/YYYY")
	flag.StringVar(&config.PeriodTo, "period-to", "", "Statement end period, MM/YYYY")
	flag.StringVar(&config.CalculationDate, "calculation-date", "", "Statement calculation date, DD/MM/YYYY")
	flag.StringVar(&config.ScreenshotDir, "screenshots", "", "Directory for statement screenshots")
	flag.StringVar(&config.OutputFile, "output", "", "Write the JSON result to a file instead of stdout")
	flag.StringVar(&config.ToolCallFile, "tool-call", "", "Execute an XML tool call from a file (- for stdin)")
	flag.BoolVar(&config.ForceHeadless, "headless", false, "Force a headless browser (the portal may reject it)")
	flag.DurationVar(&config.Timeout, "timeout", 5*time.Minute, "Execution timeout")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "AFIP Connector - Automated tax portal access\n\n")
		fmt.Fprintf(os.Stderr, "Usage: afip-connector [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Log in and list pending payments\n")
		fmt.Fprintf(os.Stderr, "  afip-connector -cuit 20-12345678-9 -op payments\n\n")
		fmt.Fprintf(os.Stderr, "  # Account statement for a period\n")
		fmt.Fprintf(os.Stderr, "  afip-connector -op statement -period-from 01/2026 -period-to 06/2026\n\n")
		fmt.Fprintf(os.Stderr, "  # Run from a YAML description\n")
		fmt.Fprintf(os.Stderr, "  afip-connector -run nightly.yaml\n\n")
	}

	flag.Parse()
	return config
}

// run executes the requested operation
func run(ctx context.Context, cliConfig *CLIConfig) error {
	if cliConfig.RunFile != "" {
		if err := applyRunFile(cliConfig); err != nil {
			return err
		}
	}

	if err := appconfig.Initialize(cliConfig.ConfigFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	logger, err := logging.NewLogger("afip-connector")
	if err != nil {
		log.Printf("file logging unavailable: %v", err)
	}
	defer logger.Close()

	if cliConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliConfig.Timeout)
		defer cancel()
	}

	manager := browser.NewSessionManager()
	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	chain := buildSolverChain(logger)
	storage, err := buildSessionStorage()
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}

	// Headed by default; the portal rejects obvious headless browsers.
	headless := false
	if browserCfg := appconfig.GetBrowser(); browserCfg != nil {
		headless = browserCfg.IsHeadless()
	}
	if cliConfig.ForceHeadless {
		headless = true
	}

	connector, err := afip.NewConnector(manager, chain, storage, afip.Options{
		Headless:      headless,
		ScreenshotDir: cliConfig.ScreenshotDir,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}
	defer connector.Close()

	if cliConfig.ToolCallFile != "" {
		return executeToolCall(ctx, connector, cliConfig)
	}

	result, err := execute(ctx, connector, cliConfig)
	if err != nil {
		return err
	}

	return writeResult(cliConfig.OutputFile, result)
}

// executeToolCall runs a single XML tool call against the tool registry,
// the invocation path upstream orchestrators use.
func executeToolCall(ctx context.Context, connector *afip.Connector, cliConfig *CLIConfig) error {
	var data []byte
	var err error
	if cliConfig.ToolCallFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(cliConfig.ToolCallFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read tool call: %w", err)
	}

	call, _, err := tools.ParseToolCall(string(data))
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	if err := afiptools.RegisterTools(registry, connector); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	result, metadata, err := registry.Dispatch(ctx, call)
	if err != nil {
		return fmt.Errorf("tool %s failed: %w", call.ToolName, err)
	}

	return writeResult(cliConfig.OutputFile, map[string]interface{}{
		"tool":     call.ToolName,
		"result":   result,
		"metadata": metadata,
	})
}

// execute dispatches the requested operation. Status and logout work
// without authenticating; everything else logs in first.
func execute(ctx context.Context, connector *afip.Connector, cliConfig *CLIConfig) (interface{}, error) {
	switch cliConfig.Operation {
	case "status":
		return map[string]interface{}{"solvers": connector.SolverStatus()}, nil
	case "logout":
		return executeLogout(ctx, connector, cliConfig)
	}

	status, err := connector.Login(ctx, afip.Credentials{
		CUIT:     cliConfig.CUIT,
		Password: cliConfig.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if status != afip.StatusSuccess {
		return map[string]interface{}{"login_status": status}, nil
	}

	switch cliConfig.Operation {
	case "login":
		return map[string]interface{}{
			"login_status": status,
			"session":      connector.Session(),
		}, nil

	case "payments":
		payments, err := connector.PendingPayments(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"login_status": status,
			"payments":     payments,
		}, nil

	case "statement":
		statement, err := connector.AccountStatement(ctx,
			cliConfig.PeriodFrom, cliConfig.PeriodTo, cliConfig.CalculationDate)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"login_status": status,
			"statement":    statement,
		}, nil

	default:
		return nil, fmt.Errorf("invalid operation: %s (must be login, payments, statement, status, or logout)", cliConfig.Operation)
	}
}

// executeLogout drops the portal session without going through the login
// form, so a stale persisted session never costs a captcha solve. The
// restore attempt is best effort: with nothing to restore the local and
// persisted state still gets cleared.
func executeLogout(ctx context.Context, connector *afip.Connector, cliConfig *CLIConfig) (interface{}, error) {
	restored, err := connector.RestoreSession(cliConfig.CUIT)
	if err != nil {
		log.Printf("session restore skipped: %v", err)
	}
	if err := connector.Logout(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"logged_out":       true,
		"session_restored": restored,
	}, nil
}

// buildSolverChain assembles the captcha solver chain from configuration.
// Services without an API key are left out; an empty chain is valid and
// means captchas always require manual intervention.
func buildSolverChain(logger captcha.Logger) *captcha.Chain {
	solvers := appconfig.GetSolvers()
	if solvers == nil {
		return nil
	}

	breakerCfg := solvers.BreakerConfig()
	chain := captcha.NewChain(logger)

	for _, service := range solvers.ChainOrder() {
		apiKey := solvers.APIKey(service)
		if apiKey == "" {
			continue
		}

		switch service {
		case appconfig.SolverCapSolver:
			chain.AddSolver(captcha.NewCapSolver(apiKey, logger), &breakerCfg)
		case appconfig.SolverTwoCaptcha:
			chain.AddSolver(captcha.NewTwoCaptcha(apiKey, logger), &breakerCfg)
		case appconfig.SolverAntiCaptcha:
			chain.AddSolver(captcha.NewAntiCaptcha(apiKey, logger), &breakerCfg)
		}
	}
	return chain
}

// buildSessionStorage opens the configured session store.
func buildSessionStorage() (session.Storage, error) {
	sessions := appconfig.GetSessions()
	if sessions == nil || !sessions.ShouldPersist() {
		return session.NewMemoryStorage(), nil
	}
	return session.NewEncryptedStorage(sessions.StorageDir())
}

// applyRunFile overlays a YAML run description onto the CLI configuration.
// Explicit command-line flags still win for credentials.
func applyRunFile(cliConfig *CLIConfig) error {
	data, err := os.ReadFile(cliConfig.RunFile)
	if err != nil {
		return fmt.Errorf("failed to read run file: %w", err)
	}

	var runConfig RunConfig
	if err := yaml.Unmarshal(data, &runConfig); err != nil {
		return fmt.Errorf("failed to parse run file: %w", err)
	}

	if cliConfig.CUIT == "" {
		cliConfig.CUIT = runConfig.CUIT
	}
	if cliConfig.Password == "" {
		cliConfig.Password = runConfig.Password
	}
	if runConfig.Operation != "" {
		cliConfig.Operation = runConfig.Operation
	}
	if runConfig.PeriodFrom != "" {
		cliConfig.PeriodFrom = runConfig.PeriodFrom
	}
	if runConfig.PeriodTo != "" {
		cliConfig.PeriodTo = runConfig.PeriodTo
	}
	if runConfig.CalculationDate != "" {
		cliConfig.CalculationDate = runConfig.CalculationDate
	}
	if runConfig.ScreenshotDir != "" {
		cliConfig.ScreenshotDir = runConfig.ScreenshotDir
	}
	if runConfig.Output != "" {
		cliConfig.OutputFile = runConfig.Output
	}
	return nil
}

// writeResult emits the operation result as indented JSON.
func writeResult(path string, result interface{}) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	encoded = append(encoded, '\n')

	if path == "" {
		_, err = os.Stdout.Write(encoded)
		return err
	}
	return os.WriteFile(path, encoded, 0o600)
}
