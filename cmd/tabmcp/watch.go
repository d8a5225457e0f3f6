package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	"github.com/wjsutton/tableau-public-mcp/internal/analyzer"
	"github.com/wjsutton/tableau-public-mcp/internal/workbook"
)

func watchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: tabmcp watch <workbook.json>")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(c.Args().First())
	if err != nil {
		return err
	}

	a := newAnalyzer(cfg)

	// First analysis up front; the loop only reports changes after it.
	lastFingerprint, err := analyzeAndPrint(a, path, "")
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save,
	// which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	fmt.Fprintf(os.Stderr, "Watching %s (debounce %v)\n", shortPath(path), debounce)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			fp, err := analyzeAndPrint(a, path, lastFingerprint)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			} else {
				lastFingerprint = fp
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-sigChan:
			return nil
		}
	}
}

// analyzeAndPrint loads and analyzes path, printing the summary unless the
// workbook fingerprint matches the previous run. Returns the current
// fingerprint.
func analyzeAndPrint(a *analyzer.Analyzer, path, lastFingerprint string) (string, error) {
	wb, err := workbook.Load(path)
	if err != nil {
		return lastFingerprint, err
	}

	fp := analyzer.Fingerprint(wb)
	if fp == lastFingerprint {
		return fp, nil
	}

	report := a.Analyze(wb)
	fmt.Printf("--- %s @ %s ---\n", shortPath(path), time.Now().Format(time.TimeOnly))
	printSummary(report)
	return fp, nil
}
