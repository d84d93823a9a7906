package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/akeren/digitalcraft-dispatch/config"
	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/internal/notice"
	"github.com/akeren/digitalcraft-dispatch/internal/submission"
	"github.com/spf13/cobra"
)

// cliApp carries the process streams and the seams tests replace.
type cliApp struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
	opener submission.Opener
	logger *log.Logger

	logLevel  string
	printLink bool
}

func main() {
	app := &cliApp{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, now: time.Now}
	if err := newRootCmd(app).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(app *cliApp) *cobra.Command {
	root := &cobra.Command{
		Use:           "dispatch",
		Short:         "Contact and meeting requests for DigitalCraft",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := app.logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			app.logger = log.NewTextLogger(app.errOut, log.ParseLevel(level))
			config.InitializeEnvFile(app.logger)
		},
	}

	root.SetIn(app.in)
	root.SetOut(app.out)
	root.SetErr(app.errOut)

	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&app.printLink, "print-link", false, "print fallback links instead of launching the system handler")

	root.AddCommand(
		newContactCmd(app),
		newMeetingCmd(app),
		newCatalogCmd(app),
		newThemeCmd(app),
		newMigrateCmd(app),
	)

	return root
}

// newClient builds a submission client whose notices are drawn on stderr.
func (app *cliApp) newClient() (*submission.Client, error) {
	cfg := config.NewClientConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opener := app.opener
	if opener == nil {
		if app.printLink {
			opener = submission.PrintOpener{W: app.out}
		} else {
			opener = submission.NewSystemOpener()
		}
	}

	board := notice.NewBoard()
	board.OnChange(newNoticePrinter(app.errOut).print)

	return submission.NewClient(submission.Config{
		Endpoint:      cfg.Endpoint,
		Token:         cfg.Token,
		OperatorEmail: cfg.OperatorEmail,
		BrandName:     cfg.BrandName,
		Timeout:       cfg.Timeout,
		Idempotency:   true,
		Opener:        opener,
		Notifier:      board,
		Logger:        app.logger,
	})
}

// noticePrinter writes each notice once, however often the board changes.
// Expiry timers notify from their own goroutines.
type noticePrinter struct {
	mu   sync.Mutex
	w    io.Writer
	seen map[string]bool
}

func newNoticePrinter(w io.Writer) *noticePrinter {
	return &noticePrinter{w: w, seen: make(map[string]bool)}
}

func (p *noticePrinter) print(visible []notice.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, n := range visible {
		if p.seen[n.ID] {
			continue
		}
		p.seen[n.ID] = true
		fmt.Fprintln(p.w, notice.Render(n))
	}
}
