package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/iitbhu2k25/Dss-muskan/internal/pipeline"
)

var (
	batchFile        string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run priority map jobs from a YAML file",
	Long: `Runs every job in a YAML file with bounded concurrency. Each job takes
the fields of a priority request plus a name:

  jobs:
    - name: varuna
      layers: [{name: rainfall, weight: 0.4}, {name: slope, weight: 0.6}]
      constraint: protected_areas
      boundary: {level: district, codes: [187]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f, err := os.Open(batchFile)
		if err != nil {
			return eris.Wrapf(err, "open %s", batchFile)
		}
		jobs, err := loadJobs(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentJobs
		}
		outcomes, err := processBatch(ctx, jobs, concurrency, env.Pipeline.Run)
		if printErr := printJSON(cmd.OutOrStdout(), outcomes); printErr != nil {
			return printErr
		}
		return err
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "YAML job file (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max jobs in flight (default batch.max_concurrent_jobs)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// job is one named priority request in a batch file.
type job struct {
	Name             string `yaml:"name"`
	pipeline.Request `yaml:",inline"`
}

type jobFile struct {
	Jobs []job `yaml:"jobs"`
}

// loadJobs decodes a batch file. Unnamed jobs are named by position.
func loadJobs(r io.Reader) ([]job, error) {
	var jf jobFile
	if err := yaml.NewDecoder(r).Decode(&jf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.New("batch: job file is empty")
		}
		return nil, eris.Wrap(err, "batch: decode job file")
	}
	if len(jf.Jobs) == 0 {
		return nil, eris.New("batch: job file has no jobs")
	}
	for i := range jf.Jobs {
		if jf.Jobs[i].Name == "" {
			jf.Jobs[i].Name = "job-" + strconv.Itoa(i+1)
		}
	}
	return jf.Jobs, nil
}

// runFunc is the callback signature for running one priority request.
type runFunc func(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)

// jobOutcome reports one job of a batch.
type jobOutcome struct {
	Name   string           `json:"name"`
	Status string           `json:"status"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// processBatch runs jobs concurrently, at most concurrency at a time. A
// failed job does not stop the others; the returned error counts failures.
// Outcomes keep the order of jobs.
func processBatch(ctx context.Context, jobs []job, concurrency int, run runFunc) ([]jobOutcome, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	zap.L().Info("processing batch",
		zap.Int("jobs", len(jobs)),
		zap.Int("concurrency", concurrency),
	)

	outcomes := make([]jobOutcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			log := zap.L().With(zap.String("job", j.Name))
			outcomes[i] = jobOutcome{Name: j.Name}

			result, err := run(gctx, j.Request)
			if err != nil {
				failed.Add(1)
				outcomes[i].Status = "failed"
				outcomes[i].Error = err.Error()
				log.Error("job failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			outcomes[i].Status = result.Status
			outcomes[i].Result = result
			log.Info("job complete", zap.String("layer", result.Layer))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	if n := failed.Load(); n > 0 {
		return outcomes, eris.Errorf("batch: %d of %d jobs failed", n, len(jobs))
	}
	return outcomes, nil
}
