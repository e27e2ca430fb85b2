package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/correlate/internal/compiler"
	"github.com/roach88/correlate/internal/config"
	"github.com/roach88/correlate/internal/engine"
	"github.com/roach88/correlate/internal/ir"
	"github.com/roach88/correlate/internal/queue"
	"github.com/roach88/correlate/internal/rule"
	"github.com/roach88/correlate/internal/sink"
	"github.com/roach88/correlate/internal/source"
)

// RunOptions holds flags for the run command. Flags override the config
// file field by field.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Rules      string
	Input      string
	InputPath  string
	Output     string
	OutputPath string
	Quorum     int
	Timer      time.Duration

	// IDs allows overriding the message ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs source.IDGenerator
}

// RunSummary is what a finished run reports.
type RunSummary struct {
	Contexts   int   `json:"contexts"`
	Dispatched int64 `json:"dispatched"`
	Emitted    int64 `json:"emitted"`
	Dropped    int64 `json:"dropped"`
	Written    int   `json:"written"`
	Failed     int   `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Correlate a message stream",
		Long: `Start the dispatcher over the compiled rules and feed it log messages.

Messages are JSON lines ({"uuid": ..., "name": ..., "values": {...}}) read
from stdin, a file or a Kafka topic. A timer ticks every --timer so time
based conditions fire. Records emitted by closing contexts go to stdout, a
JSON-lines file, a Kafka topic, a Redis list or a SQLite audit store.

The run ends when every producer has finished: a finite input ends the
timer too. Ctrl-C stops it early.

Examples:
  correlate run --rules ./rules < messages.jsonl
  correlate run --config correlate.yaml
  correlate run --rules ./rules --input file --input-path app.jsonl --output sqlite --output-path out.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrelate(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	f.StringVar(&opts.Rules, "rules", "", "CUE rules directory")
	f.StringVar(&opts.Input, "input", "", "input type (stdin|file|kafka)")
	f.StringVar(&opts.InputPath, "input-path", "", "input file path")
	f.StringVar(&opts.Output, "output", "", "output type (stdout|file|kafka|redis|sqlite)")
	f.StringVar(&opts.OutputPath, "output-path", "", "output file or database path")
	f.IntVar(&opts.Quorum, "quorum", 0, "exits that stop the dispatcher (0 = one per producer)")
	f.DurationVar(&opts.Timer, "timer", 0, "timer tick interval")

	return cmd
}

// loadRunConfig reads the config file, if any, and applies flag overrides.
func loadRunConfig(opts *RunOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if opts.Rules != "" {
		cfg.Rules = opts.Rules
	}
	if opts.Input != "" {
		cfg.Input.Type = opts.Input
	}
	if opts.InputPath != "" {
		cfg.Input.Path = opts.InputPath
	}
	if opts.Output != "" {
		cfg.Output.Type = opts.Output
	}
	if opts.OutputPath != "" {
		cfg.Output.Path = opts.OutputPath
	}
	if opts.Quorum != 0 {
		cfg.Quorum = opts.Quorum
	}
	if opts.Timer != 0 {
		cfg.TimerInterval = opts.Timer
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runCorrelate(opts *RunOptions, cmd *cobra.Command) error {
	slog.SetDefault(newLogger(opts.RootOptions, cmd.ErrOrStderr()))

	cfg, err := loadRunConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	slog.Info("loading rules", "dir", cfg.Rules)
	loaded, errs := compiler.LoadRules(cfg.Rules, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load rules", errs[0])
	}
	if verrs := compiler.Validate(loaded.Configs); len(verrs) > 0 {
		for _, ve := range verrs {
			slog.Error("invalid rule", "code", ve.Code, "context", ve.Context, "field", ve.Field, "message", ve.Message)
		}
		return WrapExitError(ExitCommandError, "invalid rules", verrs[0])
	}
	rules := rule.FromConfigs(loaded.Configs)
	slog.Info("rules compiled", "contexts", rules.Len())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	sigCtx, stopSignals := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	out, startSeq, err := openSink(ctx, cfg.Output, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open output", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			slog.Error("error closing output", "error", closeErr)
		}
	}()

	producers, err := buildProducers(cfg, opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}

	quorum := cfg.Quorum
	if quorum == 0 {
		quorum = len(producers)
	}

	control := queue.New[ir.Command]()
	responses := queue.New[ir.Response]()
	d := engine.New(rules, responses,
		engine.WithQuorum(quorum),
		engine.WithClock(engine.NewClockAt(startSeq)),
	)

	// Ctrl-C with a quorum larger than the producer count would otherwise
	// leave the loop waiting.
	stopLoop := context.AfterFunc(ctx, d.Stop)
	defer stopLoop()

	var (
		wg      sync.WaitGroup
		drained sink.DrainStats
		prodErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		// Not ctx: records already emitted are written even on Ctrl-C.
		drained = sink.Drain(context.Background(), responses, out, quorum)
	}()
	go func() {
		defer wg.Done()
		prodErr = source.Run(ctx, control, producers...)
	}()

	slog.Info("dispatcher running",
		"input", cfg.Input.Type,
		"output", cfg.Output.Type,
		"quorum", quorum,
		"timer", cfg.TimerInterval,
	)
	d.StartLoop(control)

	// Loop is done: let the drain finish and release any producer still
	// running (quorum below the producer count).
	responses.Close()
	control.Close()
	cancel()
	wg.Wait()

	st := d.Stats()
	summary := RunSummary{
		Contexts:   rules.Len(),
		Dispatched: st.Dispatched,
		Emitted:    st.Emitted,
		Dropped:    st.Dropped,
		Written:    drained.Written,
		Failed:     drained.Failed,
	}
	slog.Info("run finished",
		"dispatched", summary.Dispatched,
		"emitted", summary.Emitted,
		"written", summary.Written,
		"failed", summary.Failed,
	)

	if prodErr != nil {
		return WrapExitError(ExitFailure, "input failed", prodErr)
	}
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) could not be written", summary.Failed))
	}
	return nil
}

// buildProducers wires the configured input and the timer. A finite input
// stops the timer when it ends, so the run reaches quorum on its own.
func buildProducers(cfg *config.Config, opts *RunOptions, cmd *cobra.Command) ([]source.Producer, error) {
	ids := opts.IDs
	if ids == nil {
		ids = source.UUIDv7Generator{}
	}

	var input source.Producer
	switch cfg.Input.Type {
	case config.InputStdin:
		input = &source.Lines{Label: "stdin", Reader: cmd.InOrStdin(), IDs: ids}
	case config.InputFile:
		f, err := os.Open(cfg.Input.Path)
		if err != nil {
			return nil, err
		}
		input = &source.Lines{Label: cfg.Input.Path, Reader: f, IDs: ids}
	case config.InputKafka:
		input = &source.Kafka{
			Brokers: cfg.Input.Brokers,
			Topic:   cfg.Input.Topic,
			Group:   cfg.Input.Group,
			IDs:     ids,
		}
	default:
		return nil, fmt.Errorf("unknown input type %q", cfg.Input.Type)
	}

	inputDone := make(chan struct{})
	return []source.Producer{
		source.Finally(input, func() { close(inputDone) }),
		&source.Ticker{Interval: cfg.TimerInterval, Done: inputDone},
	}, nil
}

// openSink opens the configured output. startSeq is the highest seq the
// output already holds, so a resumed run keeps seqs increasing.
func openSink(ctx context.Context, oc config.OutputConfig, cmd *cobra.Command) (sink.Sink, int64, error) {
	switch oc.Type {
	case config.OutputStdout:
		return sink.NewJSON(cmd.OutOrStdout()), 0, nil
	case config.OutputFile:
		s, err := sink.OpenJSONFile(oc.Path)
		return s, 0, err
	case config.OutputKafka:
		return sink.NewKafka(oc.Brokers, oc.Topic), 0, nil
	case config.OutputRedis:
		s, err := sink.NewRedis(ctx, oc.Addr, oc.DB, oc.Key)
		return s, 0, err
	case config.OutputSQLite:
		s, err := sink.OpenStore(oc.Path)
		if err != nil {
			return nil, 0, err
		}
		seq, err := s.MaxSeq(ctx)
		if err != nil {
			s.Close()
			return nil, 0, err
		}
		return s, seq, nil
	default:
		return nil, 0, fmt.Errorf("unknown output type %q", oc.Type)
	}
}
