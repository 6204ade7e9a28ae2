package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/elstanto/muncon/adapters/excel"
	"github.com/elstanto/muncon/adapters/fileio"
	"github.com/elstanto/muncon/app"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal"
	"github.com/elstanto/muncon/internal/config"
	"github.com/elstanto/muncon/internal/container"
	"github.com/elstanto/muncon/internal/errors"
	"github.com/elstanto/muncon/internal/report"
	"github.com/elstanto/muncon/ports"

	"github.com/spf13/cobra"
)

// cli carries the settings shared by every command.
type cli struct {
	cfg  *config.Config
	log  *internal.Logger
	deps *container.Container

	format string
	unit   string
	legacy bool
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	c := &cli{cfg: cfg, log: internal.NewLogger(cfg.LogLevel).With("muncon")}

	rootCmd := &cobra.Command{
		Use:           "muncon",
		Short:         "Covariance estimation and correlated sampling for S-parameter uncertainty",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Flags are parsed by now, so the legacy order flag can reach the reader.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.cfg
			cfg.Output.LegacyCovarianceOrder = c.legacy
			deps, err := container.New(&cfg)
			if err != nil {
				return errors.WithCode(errors.CodeConfigInvalid, err)
			}
			c.deps = deps
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.format, "format", string(cfg.Output.Format), "Output number format (RI, MA, DB)")
	rootCmd.PersistentFlags().StringVar(&c.unit, "unit", string(cfg.Output.Unit), "Output frequency unit (Hz, kHz, MHz, GHz)")
	rootCmd.PersistentFlags().BoolVar(&c.legacy, "legacy-covariance-order", cfg.Output.LegacyCovarianceOrder, "Exchange S12/S21 covariance axes in DSD files")

	rootCmd.AddCommand(
		c.newBuildCmd(),
		c.newSampleCmd(),
		c.newResampleCmd(),
		c.newReportCmd(),
	)
	return rootCmd
}

func (c *cli) writeOptions() (ports.WriteOptions, error) {
	format := usnp.Format(strings.ToUpper(c.format))
	if !format.Valid() {
		return ports.WriteOptions{}, errors.InvalidInput(fmt.Sprintf("unknown format %q (want RI, MA or DB)", c.format))
	}
	unit, err := usnp.ParseFrequencyUnit(c.unit)
	if err != nil {
		return ports.WriteOptions{}, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return ports.WriteOptions{Format: format, Unit: unit, LegacyCovarianceOrder: c.legacy}, nil
}

func (c *cli) newBuildCmd() *cobra.Command {
	var ensemble string
	var ensembleMean bool
	var out string

	cmd := &cobra.Command{
		Use:   "build [manifest.yaml]",
		Short: "Estimate mean and covariance from a campaign ensemble",
		Long: `Estimate the mean S-parameters and their covariance from the Monte Carlo
or cross-validation ensemble listed in a campaign manifest.

Example: muncon build line.yaml --ensemble cv --out line.dsd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := app.ParseEnsembleKind(ensemble)
			if err != nil {
				return errors.WithCode(errors.CodeInvalidInput, err)
			}
			res, err := c.deps.Campaigns.Build(cmd.Context(), app.CampaignRequest{
				ManifestPath:    args[0],
				Ensemble:        kind,
				UseEnsembleMean: ensembleMean,
			})
			if err != nil {
				return errors.Wrap(err, "build failed")
			}
			c.log.Info("built %s covariance for %s in %dms", kind, res.Set.Name(), res.RuntimeMs)
			return c.writeDataset(cmd.Context(), out, res.Output)
		},
	}

	cmd.Flags().StringVar(&ensemble, "ensemble", string(app.CrossValidation), "Ensemble to estimate from (mc or cv)")
	cmd.Flags().BoolVar(&ensembleMean, "ensemble-mean", c.cfg.Estimation.UseEnsembleMean, "Use the ensemble mean instead of the reference as the output mean")
	cmd.Flags().StringVar(&out, "out", "out.dsd", "Output DSD file")
	return cmd
}

func (c *cli) newSampleCmd() *cobra.Command {
	var count int
	var seed int64
	var outDir string
	var prefix string

	cmd := &cobra.Command{
		Use:   "sample [in.dsd]",
		Short: "Draw correlated samples from a dataset with covariance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := c.deps.Reader.ReadDataset(ctx, args[0])
			if err != nil {
				return readError(args[0], err)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errors.IOError(outDir, err)
			}
			return c.deps.Campaigns.Sample(ctx, ds, count, seed, func(i int, d *usnp.Dataset) error {
				name := fileio.TouchstoneName(fmt.Sprintf("%s_%04d", prefix, i+1), d.Ports())
				return c.writeDataset(ctx, filepath.Join(outDir, name), d)
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", c.cfg.Sampling.Samples, "Number of samples to draw")
	cmd.Flags().Int64Var(&seed, "seed", c.cfg.Sampling.Seed, "Random seed for deterministic sampling")
	cmd.Flags().StringVar(&outDir, "out-dir", c.cfg.Output.Dir, "Directory for the sample files")
	cmd.Flags().StringVar(&prefix, "prefix", "sample", "Sample file name prefix")
	return cmd
}

func (c *cli) newResampleCmd() *cobra.Command {
	var ensemble string
	var count int
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "resample [manifest.yaml]",
		Short: "Build a covariance, draw a Monte Carlo ensemble from it and rebuild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := app.ParseEnsembleKind(ensemble)
			if err != nil {
				return errors.WithCode(errors.CodeInvalidInput, err)
			}
			res, err := c.deps.Campaigns.Resample(cmd.Context(), app.ResampleRequest{
				CampaignRequest: app.CampaignRequest{ManifestPath: args[0], Ensemble: kind, UseEnsembleMean: true},
				Count:           count,
				Seed:            seed,
			})
			if err != nil {
				return errors.Wrap(err, "resample failed")
			}
			c.log.Info("rebuilt covariance from %d generated samples in %dms", count, res.RuntimeMs)
			return c.writeDataset(cmd.Context(), out, res.Output)
		},
	}

	cmd.Flags().StringVar(&ensemble, "ensemble", string(app.CrossValidation), "Ensemble the first covariance is built from")
	cmd.Flags().IntVar(&count, "count", c.cfg.Sampling.Samples, "Number of Monte Carlo samples to generate")
	cmd.Flags().Int64Var(&seed, "seed", c.cfg.Sampling.Seed, "Random seed for deterministic sampling")
	cmd.Flags().StringVar(&out, "out", "resampled.dsd", "Output DSD file")
	return cmd
}

func (c *cli) newReportCmd() *cobra.Command {
	var xlsxPath string
	var htmlPath string
	var checkCount int
	var seed int64

	cmd := &cobra.Command{
		Use:   "report [in.dsd]",
		Short: "Summarize the standard uncertainty of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := c.deps.Reader.ReadDataset(ctx, args[0])
			if err != nil {
				return readError(args[0], err)
			}
			r, err := report.Build(filepath.Base(args[0]), ds)
			if err != nil {
				return errors.Wrap(err, "report failed")
			}

			if checkCount > 0 {
				var samples []*usnp.Dataset
				err := c.deps.Campaigns.Sample(ctx, ds, checkCount, seed, func(_ int, d *usnp.Dataset) error {
					samples = append(samples, d)
					return nil
				})
				if err != nil {
					return errors.Wrap(err, "sample check failed")
				}
				if r.Check, err = report.CheckSamples(ds, samples, 0.01); err != nil {
					return errors.Wrap(err, "sample check failed")
				}
			}

			opts, err := c.writeOptions()
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := excel.NewWriter(opts.Unit).SaveAs(xlsxPath, r); err != nil {
					return errors.IOError(xlsxPath, err)
				}
			}
			if htmlPath != "" {
				if err := os.WriteFile(htmlPath, r.HTML(), 0o644); err != nil {
					return errors.IOError(htmlPath, err)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), r.Markdown())
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write an xlsx workbook to this path")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an HTML report to this path")
	cmd.Flags().IntVar(&checkCount, "check-samples", 0, "Draw this many samples and check them against the covariance")
	cmd.Flags().Int64Var(&seed, "seed", c.cfg.Sampling.Seed, "Random seed for the sample check")
	return cmd
}

// writeDataset serializes ds with the writer for path's extension. The file
// is only created once serialization has succeeded.
func (c *cli) writeDataset(ctx context.Context, path string, ds *usnp.Dataset) error {
	opts, err := c.writeOptions()
	if err != nil {
		return err
	}
	w, err := fileio.WriterFor(path, ds)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	var buf bytes.Buffer
	if err := w.WriteDataset(ctx, &buf, ds, opts); err != nil {
		return errors.Wrap(err, "serialize "+path)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.IOError(path, err)
	}
	c.log.Debug("wrote %s", path)
	return nil
}

func readError(path string, err error) error {
	if os.IsNotExist(err) || os.IsPermission(err) {
		return errors.IOError(path, err)
	}
	return errors.Wrap(err, "read "+path)
}
