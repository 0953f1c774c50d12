package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hedgedesk/hedgebook/internal/aggregate"
	"github.com/hedgedesk/hedgebook/internal/book"
	"github.com/hedgedesk/hedgebook/internal/classify"
	"github.com/hedgedesk/hedgebook/internal/config"
	"github.com/hedgedesk/hedgebook/internal/model"
	"github.com/hedgedesk/hedgebook/internal/rollup"
	"github.com/hedgedesk/hedgebook/internal/source"
)

var errMismatch = errors.New("rollup mismatch")

type rootOptions struct {
	positions  string
	configPath string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	root := &cobra.Command{
		Use:           "hedgectl",
		Short:         "Hedge book aggregation over a positions snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.positions, "positions", "data/positions.json", "positions snapshot (JSON array of rows)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional YAML config for hedge classification")

	root.AddCommand(rollupCmd(&opts))
	root.AddCommand(breakdownCmd(&opts))
	root.AddCommand(verifyCmd(&opts))
	return root
}

func rollupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollup",
		Short: "Print the rollup header as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, total, err := loadRows(cmd, opts)
			if err != nil {
				return err
			}
			header := rollup.Build(rows)
			return writeJSON(cmd.OutOrStdout(), model.RollupResponse{
				Header:           header,
				GroupedRows:      header.ByFamilyAndStrategy,
				PortfolioTotalMV: total,
			})
		},
	}
}

func breakdownCmd(opts *rootOptions) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Print the expiry ladder and asset-type exposure",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := time.Now().UTC()
			if asOf != "" {
				t, ok := classify.ParseDate(asOf)
				if !ok {
					return fmt.Errorf("--as-of %q is not a date", asOf)
				}
				today = t
			}
			rows, _, err := loadRows(cmd, opts)
			if err != nil {
				return err
			}
			printBreakdown(cmd.OutOrStdout(), rows, today)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date for the expiry ladder (default today)")
	return cmd
}

func verifyCmd(opts *rootOptions) *cobra.Command {
	var remotePath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare the local rollup with an upstream rollup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := readRemoteHeader(remotePath)
			if err != nil {
				return err
			}
			rows, _, err := loadRows(cmd, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			mismatches := rollup.Compare(rollup.Build(rows), remote)
			if len(mismatches) == 0 {
				fmt.Fprintf(out, "OK: rollup matches over %d rows\n", len(rows))
				return nil
			}
			for _, m := range mismatches {
				fmt.Fprintln(out, "MISMATCH", m.String())
			}
			return errMismatch
		},
	}
	cmd.Flags().StringVar(&remotePath, "rollup", "", "upstream rollup JSON (a rollup response or a bare header)")
	cmd.MarkFlagRequired("rollup")
	return cmd
}

// loadRows reads the snapshot and classifies it the way the server does.
func loadRows(cmd *cobra.Command, opts *rootOptions) ([]model.Position, float64, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, 0, err
		}
		cfg = loaded
	}

	rows, err := source.NewFileSource(opts.positions).Positions(cmd.Context())
	if err != nil {
		return nil, 0, err
	}
	joined := book.Join(rows, nil, book.Classification{
		StrategyToFamily: cfg.HedgeClassification.StrategyToFamily,
		DefaultFamily:    cfg.HedgeClassification.DefaultFamily,
	}, time.Now().UTC())
	return joined, book.PortfolioTotalMV(rows, cfg.Filters.PortfolioFilter), nil
}

// readRemoteHeader accepts either a full rollup response or a bare header.
func readRemoteHeader(path string) (model.RollupHeader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RollupHeader{}, err
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return model.RollupHeader{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if raw, ok := envelope["header"]; ok {
		data = raw
	}
	var header model.RollupHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return model.RollupHeader{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return header, nil
}

func printBreakdown(w io.Writer, rows []model.Position, today time.Time) {
	fmt.Fprintf(w, "Expiry ladder as of %s\n", today.Format("2006-01-02"))
	for _, e := range aggregate.ByExpiryBucket(rows, today) {
		fmt.Fprintf(w, "  %-6s %18.2f  %4d\n", e.Bucket, e.MarketValue, e.Count)
	}
	fmt.Fprintln(w, "Asset type")
	for _, a := range aggregate.ByAssetType(rows) {
		fmt.Fprintf(w, "  %-15s %18.2f  %6.2f%%  %s\n", a.AssetType, a.MarketValue, a.Percentage, a.Color)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
