package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/batch"
	"github.com/fwojciec/pagecap/capture"
	"github.com/fwojciec/pagecap/fs"
	"github.com/fwojciec/pagecap/gemini"
	pchttp "github.com/fwojciec/pagecap/http"
	"github.com/fwojciec/pagecap/pdfcpu"
	"github.com/fwojciec/pagecap/rod"
	pcslog "github.com/fwojciec/pagecap/slog"
	"github.com/fwojciec/pagecap/sqlite"
	"github.com/fwojciec/pagecap/tesseract"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path for the run history. Set before calling Run().
	DBPath string

	// OutputDir is the directory capture documents are written to.
	OutputDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	RunService pagecap.RunService
	Session    *capture.Session
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:    defaultDBPath(),
		OutputDir: defaultOutputDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("pagecap"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'pagecap --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cli.Verbose)

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set PAGECAP_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	// Wire core services into dependencies
	m.RunService = sqlite.NewRunService(m.DB)
	deps.DB = m.DB
	deps.Runs = m.RunService

	store := fs.NewStore(m.OutputDir)
	assembler := pcslog.NewLoggingAssembler(pdfcpu.NewAssembler(store, pdfcpu.WithLogger(logger)), logger)

	// Wire command-specific dependencies based on command
	if cmd == "capture" {
		recognizers, err := recognizerFactory(ctx, cli.Capture, logger)
		if err != nil {
			return err
		}

		session, err := capture.NewSession(capture.Options{
			Surface:    surfaceFactory(cli.Capture.URL, cli.Capture.Headed, logger),
			Assembler:  assembler,
			Recognizer: recognizers,
			Runs:       m.RunService,
			Logger:     logger,
			Config:     captureConfig(cli.Capture),
		})
		if err != nil {
			return err
		}

		if err := session.Launch(ctx); err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer session.Close()

		m.Session = session
		deps.Session = session
	}

	if cmd == "batch" {
		session, err := capture.NewSession(capture.Options{
			Surface:   surfaceFactory("about:blank", cli.Batch.Headed, logger),
			Assembler: assembler,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		if err := session.Launch(ctx); err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer session.Close()

		m.Session = session
		deps.Session = session
		deps.Batch = batch.NewProcessor(session, store, nil, logger)
		deps.Sitemap = pchttp.NewSitemapService(nil)
	}

	return kongCtx.Run(deps)
}

// newLogger builds the CLI logger. Progress goes to stdout through
// events; logs stay on stderr and are quiet unless --verbose is set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// surfaceFactory defers browser startup to Session.Launch so attachment
// errors surface through the session's event stream.
func surfaceFactory(url string, headed bool, logger *slog.Logger) capture.SurfaceFactory {
	return func(ctx context.Context) (pagecap.Surface, error) {
		surface, err := rod.NewSurface(ctx, url, rod.WithHeadless(!headed))
		if err != nil {
			return nil, err
		}
		return pcslog.NewLoggingSurface(surface, logger), nil
	}
}

// captureConfig translates capture flags into the session configuration.
// Pages and delay are merged later by StartCapture.
func captureConfig(c CaptureCmd) pagecap.CaptureConfig {
	cfg := pagecap.DefaultConfig()
	cfg.OCREnabled = c.OCR
	cfg.AdvanceKey = c.Key
	if c.Quality > 0 {
		cfg.Encoding = pagecap.ImageEncoding{Format: pagecap.FormatJPEG, Quality: c.Quality}
	}
	return cfg
}

// recognizerFactory selects the OCR engine for capture runs. It returns
// nil when OCR is disabled.
func recognizerFactory(ctx context.Context, c CaptureCmd, logger *slog.Logger) (capture.RecognizerFactory, error) {
	if !c.OCR {
		return nil, nil
	}

	if c.Engine == "gemini" {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		return func() (pagecap.Recognizer, error) {
			return pcslog.NewLoggingRecognizer(gemini.NewRecognizer(client), logger), nil
		}, nil
	}

	langs := c.Lang
	return func() (pagecap.Recognizer, error) {
		rec, err := tesseract.NewRecognizer(langs...)
		if err != nil {
			return nil, err
		}
		return pcslog.NewLoggingRecognizer(rec, logger), nil
	}, nil
}

func defaultDBPath() string {
	if path := os.Getenv("PAGECAP_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "pagecap.db"
	}
	dir := filepath.Join(home, ".pagecap")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "pagecap.db")
}

func defaultOutputDir() string {
	if dir := os.Getenv("PAGECAP_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "captures"
	}
	return filepath.Join(home, ".pagecap", "captures")
}
