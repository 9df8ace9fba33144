package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/LJTian/NewsDesk/internal/aggregator"
	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/desk"
	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/spf13/cobra"
)

// 一个仅执行一次聚合的命令行入口：适合手动触发刷新或排查某个分区
var (
	flagForce   bool
	flagTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "collect [category...]",
	Short: "Run one aggregation pass",
	Long:  "collect aggregates the given categories (all of them when none are given) and prints one line per category.",
	RunE:  runCollect,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print cache staleness and last update time",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.Flags().BoolVar(&flagForce, "force", false, "clear the cache and refresh every category")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 2*time.Minute, "overall timeout")
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDesk() (*desk.Desk, error) {
	return desk.FromConfig(config.Load(), nil)
}

func runCollect(cmd *cobra.Command, args []string) error {
	if flagForce && len(args) > 0 {
		return errors.New("--force refreshes every category and takes no arguments")
	}

	d, err := openDesk()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	outcomes, err := collect(ctx, d, args, flagForce)
	if err != nil {
		return err
	}
	printOutcomes(cmd.OutOrStdout(), outcomes)
	return nil
}

func collect(ctx context.Context, d *desk.Desk, names []string, force bool) ([]aggregator.Outcome, error) {
	switch {
	case force:
		return d.ForceRefreshAll(ctx), nil
	case len(names) == 0:
		return d.FetchAll(ctx), nil
	}

	outcomes := make([]aggregator.Outcome, 0, len(names))
	for _, name := range names {
		articles, err := d.Fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, aggregator.Outcome{
			Category: model.Category(name),
			Status:   aggregator.StatusFulfilled,
			Articles: articles,
		})
	}
	return outcomes, nil
}

func printOutcomes(w io.Writer, outcomes []aggregator.Outcome) {
	for _, o := range outcomes {
		line := fmt.Sprintf("%-14s %-9s %2d articles", o.Category, o.Status, len(o.Articles))
		if len(o.Articles) > 0 {
			line += "  top: " + o.Articles[0].Headline
		}
		if o.Error != "" {
			line += "  error: " + o.Error
		}
		fmt.Fprintln(w, line)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := openDesk()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	last, err := d.LastUpdate(ctx)
	if err != nil {
		return err
	}
	if last.IsZero() {
		fmt.Fprintln(cmd.OutOrStdout(), "last update: never")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "last update: %s\n", last.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stale: %t\n", d.IsStale(ctx))
	return nil
}
