// Command analyze submits a brochure (and optionally a floor plan) to the
// analysis service once and prints the grouped property details.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stwalsh4118/property-analyzer/internal/analyzer"
	"github.com/stwalsh4118/property-analyzer/internal/logger"
	"github.com/stwalsh4118/property-analyzer/internal/models"
	"github.com/stwalsh4118/property-analyzer/internal/presenter"
	"github.com/stwalsh4118/property-analyzer/internal/uploader"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// cliResult collects what the controller reports through its hooks.
type cliResult struct {
	loading bool
	err     string
	record  models.PropertyRecord
}

func run(args []string) int {
	flags := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
	flags.String("brochure", "", "path to the property brochure (required)")
	flags.String("floor-plan", "", "path to the floor plan (optional)")
	flags.String("url", analyzerDefaultURL, "analysis service base URL (env ANALYZER_URL)")
	flags.String("upload-path", analyzer.DefaultUploadPath, "analysis endpoint path (env ANALYZER_UPLOAD_PATH)")
	flags.Bool("json", false, "print the raw record as JSON instead of the grouped view")
	flags.Bool("verbose", false, "log requests to stderr")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	v := viper.New()
	if err := bindConfig(v, flags); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 2
	}

	log := logger.Nop()
	if v.GetBool("verbose") {
		log = logger.NewWithWriter(os.Stderr, "development")
	}

	client, err := analyzer.NewClient(analyzer.Options{
		BaseURL:    v.GetString("url"),
		UploadPath: v.GetString("upload-path"),
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 2
	}

	var result cliResult
	ctrl := uploader.New(client, uploader.Hooks{
		SetLoading: func(loading bool) { result.loading = loading },
		SetError:   func(msg string) { result.err = msg },
		OnUploadSuccess: func(record models.PropertyRecord) {
			result.record = record
			result.loading = false
		},
	}, log)

	if err := selectPath(ctrl, models.SlotBrochure, v.GetString("brochure")); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 2
	}
	if err := selectPath(ctrl, models.SlotFloorPlan, v.GetString("floor-plan")); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Submit(ctx); err != nil {
		log.Debug("Submit failed", map[string]interface{}{"error": err.Error()})
		fmt.Fprintln(os.Stderr, result.err)
		var invalid *uploader.ValidationError
		if errors.As(err, &invalid) {
			return 2
		}
		return 1
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.record); err != nil {
			fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
			return 1
		}
		return 0
	}

	if err := presenter.RenderText(os.Stdout, presenter.Present(result.record)); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 1
	}
	return 0
}

const analyzerDefaultURL = "http://localhost:8000"

// bindConfig layers ANALYZER_URL and ANALYZER_UPLOAD_PATH over the flag defaults.
// Flags set on the command line still win.
func bindConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := v.BindEnv("url", "ANALYZER_URL"); err != nil {
		return fmt.Errorf("failed to bind ANALYZER_URL: %w", err)
	}
	if err := v.BindEnv("upload-path", "ANALYZER_UPLOAD_PATH"); err != nil {
		return fmt.Errorf("failed to bind ANALYZER_UPLOAD_PATH: %w", err)
	}
	return nil
}

// selectPath puts the file at path into slot. An empty path leaves the slot
// empty so Submit reports the missing brochure itself.
func selectPath(ctrl *uploader.Controller, slot models.SlotName, path string) error {
	if path == "" {
		return nil
	}
	file, err := models.NewDiskFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", slot.Label(), err)
	}
	return ctrl.SelectFile(slot, file)
}
