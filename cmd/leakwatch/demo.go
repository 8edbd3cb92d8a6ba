package main

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/config"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/logging"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/output"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/tree"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

var demoDuration time.Duration

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the engine against a synthetic leaky workload",
	Long: `Run leakwatch against a built-in workload that deliberately leaks:
listeners that are added but never removed, repeating timers that are never
cancelled, store subscriptions that are abandoned, and tree nodes that are
detached while still referenced.

A report is printed after every detection cycle. Edit the config file while
the demo runs to change the report format live. Press Ctrl-C to stop.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().DurationVar(&demoDuration, "duration", 0, "stop after this long (0=until interrupted)")
	rootCmd.AddCommand(demoCmd)
}

// demoStore is a minimal subscribable store for the demo workload.
type demoStore struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func newDemoStore() *demoStore {
	return &demoStore{subs: make(map[int]func())}
}

func (s *demoStore) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// reportPrinter formats and prints reports, re-resolving the formatter on
// every report so config hot reloads take effect between cycles.
type reportPrinter struct {
	mu     sync.Mutex
	format string
}

func (p *reportPrinter) setFormat(format string) {
	p.mu.Lock()
	p.format = format
	p.mu.Unlock()
}

func (p *reportPrinter) print(r types.Report) {
	p.mu.Lock()
	format := p.format
	p.mu.Unlock()

	formatter, err := output.Get(format)
	if err != nil {
		printError("%v", err)
		return
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, &r); err != nil {
		printError("Failed to format report: %v", err)
		return
	}
	fmt.Print(buf.String())
}

// runDemo wires the engine to a synthetic workload and prints reports until
// the duration elapses or the process is interrupted.
func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Flags win over the config file.
	if v := viper.GetInt("interval_seconds"); v > 0 {
		cfg.IntervalSeconds = v
	}
	if v := viper.GetString("output_format"); v != "" {
		cfg.OutputFormat = v
	}

	if err := initLogging(cfg); err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()

	printer := &reportPrinter{format: cfg.OutputFormat}

	domTree := tree.New("root")
	store := newDemoStore()

	engine := leakwatch.New(leakwatch.Config{
		DisableListeners: !cfg.Trackers.Listeners,
		DisableTimers:    !cfg.Trackers.Timers,
		DisableNodes:     !cfg.Trackers.Nodes,
		DisableStore:     !cfg.Trackers.Store,
		Interval:         time.Duration(cfg.IntervalSeconds) * time.Second,
		MemoryAlertMB:    cfg.MemoryAlertMB,
		Tree:             domTree,
		OnReport:         printer.print,
		OnLeak: func(s types.LeakSuspect) {
			printVerbose("suspect: %s [%s] %s", s.Category, s.Severity, s.Description)
		},
	})
	defer engine.Cleanup()

	stopWatch, err := watchConfigFile(printer)
	if err != nil {
		printVerbose("config watch disabled: %v", err)
	} else {
		defer stopWatch()
	}

	stopWorkload := startLeakyWorkload(engine, domTree, store)
	defer stopWorkload()

	engine.Start()
	printInfo("Demo running with a %ds cycle. Press Ctrl-C to stop.", cfg.IntervalSeconds)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	var timeout <-chan time.Time
	if demoDuration > 0 {
		timeout = time.After(demoDuration)
	}

	select {
	case <-sig:
		printInfo("Interrupted.")
	case <-timeout:
		printInfo("Demo duration elapsed.")
	}

	engine.Stop()

	// Final on-demand report after the workload has run its course.
	printer.print(engine.GenerateReport())
	return nil
}

// initLogging applies the logging section of the loaded config.
func initLogging(cfg *config.Config) error {
	return logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
	})
}

// watchConfigFile watches the config directory and pushes the output format
// into the printer when the config file changes. Watching the directory
// rather than the file survives editors that replace the file on save.
func watchConfigFile(printer *reportPrinter) (stop func(), err error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	target := filepath.Join(dir, "config.yaml")
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				reloaded, err := config.Load()
				if err != nil {
					printVerbose("config reload failed: %v", err)
					continue
				}
				printer.setFormat(reloaded.OutputFormat)
				printVerbose("config reloaded: format=%s", reloaded.OutputFormat)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}

// startLeakyWorkload runs the deliberately leaky workload in the background
// and returns a function that stops it.
func startLeakyWorkload(engine *leakwatch.Engine, domTree *tree.Tree, store *demoStore) (stop func()) {
	done := make(chan struct{})
	patched := engine.PatchStore(store)
	listeners := engine.Listeners()
	timers := engine.Timers()

	go func() {
		tick := time.NewTicker(200 * time.Millisecond)
		defer tick.Stop()

		for {
			select {
			case <-done:
				return
			case <-tick.C:
			}

			// Listeners added to the same key and never removed.
			listeners.Add("session", "update", func(any) {})

			// Repeating timers that nobody cancels.
			timers.Every(time.Hour, func() {})

			// Store subscriptions whose unsubscribe is dropped on the floor.
			patched.Subscribe(func() {})

			// Hot selector.
			engine.TrackSelectorUsage("selectVisibleItems")

			// Nodes attached under root, then detached while still counted.
			parent := tree.NewNode("panel")
			child := tree.NewNode("row")
			domTree.Attach(domTree.Root(), parent)
			domTree.Attach(parent, child)
			domTree.Detach(parent)
		}
	}()

	return func() { close(done) }
}
