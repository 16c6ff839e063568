package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/triviadash/internal/export"
	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/opentdb"
	"github.com/verte-zerg/triviadash/internal/scheduler"
	"github.com/verte-zerg/triviadash/internal/stats"
	"github.com/verte-zerg/triviadash/internal/store"
)

var (
	countsCategory int

	sampleAmount     int
	sampleCategory   int
	sampleDifficulty string

	reportFormat     string
	reportOut        string
	reportMode       string
	reportCategory   int
	reportSampleSize int

	snapshotEvery time.Duration

	historyMode  string
	historySince string
	historyLast  int
	historyShow  int64
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List trivia categories",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesCmd,
	}
}

func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(settings, cliLogger(settings))
	if err != nil {
		return err
	}
	categories, err := client.FetchCategories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}
	return stats.RenderCategoryList(cmd.OutOrStdout(), categories)
}

func newCountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Show question counts per category and difficulty",
		Args:  cobra.NoArgs,
		RunE:  runCountsCmd,
	}
	cmd.Flags().IntVar(&countsCategory, "category", 0, "only this category id")
	return cmd
}

func runCountsCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(settings, cliLogger(settings))
	if err != nil {
		return err
	}
	report, err := databaseReport(cmd.Context(), client, countsCategory)
	if err != nil {
		return err
	}
	return stats.RenderReport(cmd.OutOrStdout(), report, 0, false)
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Analyze a random sample of questions",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().IntVar(&sampleAmount, "amount", opentdb.MaxQuestionsPerRequest, "questions to fetch (max 50)")
	cmd.Flags().IntVar(&sampleCategory, "category", 0, "restrict the sample to a category id")
	cmd.Flags().StringVar(&sampleDifficulty, "difficulty", "", "restrict the sample to easy, medium or hard")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if sampleAmount < 1 || sampleAmount > opentdb.MaxQuestionsPerRequest {
		return fmt.Errorf("--amount must be between 1 and %d", opentdb.MaxQuestionsPerRequest)
	}
	difficulty, err := model.ParseDifficulty(sampleDifficulty)
	if err != nil {
		return fmt.Errorf("--difficulty: %w", err)
	}
	client, err := newClient(settings, cliLogger(settings))
	if err != nil {
		return err
	}
	report, err := sampleReport(cmd.Context(), client, sampleAmount, sampleCategory, difficulty)
	if err != nil {
		return err
	}
	return stats.RenderReport(cmd.OutOrStdout(), report, 0, false)
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export a database or sample report",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportFormat, "format", string(export.FormatText), "output format: text, json, yaml or xlsx")
	cmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (stdout when empty; required for xlsx)")
	cmd.Flags().StringVar(&reportMode, "mode", model.ModeDatabase.String(), "database or sample")
	cmd.Flags().IntVar(&reportCategory, "category", 0, "only this category id")
	cmd.Flags().IntVar(&reportSampleSize, "sample-size", opentdb.MaxQuestionsPerRequest, "questions per sample (sample mode)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(reportFormat)
	if err != nil {
		return fmt.Errorf("--format: %w", err)
	}
	if format == export.FormatXLSX && reportOut == "" {
		return fmt.Errorf("--out is required for xlsx")
	}
	mode, err := model.ParseMode(reportMode)
	if err != nil {
		return fmt.Errorf("--mode: %w", err)
	}
	client, err := newClient(settings, cliLogger(settings))
	if err != nil {
		return err
	}

	var report stats.Report
	if mode == model.ModeSample {
		if reportSampleSize < 1 || reportSampleSize > opentdb.MaxQuestionsPerRequest {
			return fmt.Errorf("--sample-size must be between 1 and %d", opentdb.MaxQuestionsPerRequest)
		}
		report, err = sampleReport(cmd.Context(), client, reportSampleSize, reportCategory, model.DifficultyAny)
	} else {
		report, err = databaseReport(cmd.Context(), client, reportCategory)
	}
	if err != nil {
		return err
	}

	if format == export.FormatXLSX {
		if err := export.WriteXLSX(expandHome(reportOut), report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logErrf("Wrote %s\n", reportOut)
		return nil
	}
	if reportOut == "" {
		return export.Write(cmd.OutOrStdout(), format, report)
	}
	f, err := os.Create(expandHome(reportOut))
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := export.Write(f, format, report); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	logErrf("Wrote %s\n", reportOut)
	return nil
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record database question counts to history",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotCmd,
	}
	cmd.Flags().DurationVar(&snapshotEvery, "every", 0, "record periodically at this interval until interrupted")
	return cmd
}

func runSnapshotCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if settings.NoHistory {
		return fmt.Errorf("history is disabled")
	}
	log := cliLogger(settings)
	client, err := newClient(settings, log)
	if err != nil {
		return err
	}
	st, err := openStore(settings)
	if err != nil {
		return err
	}
	defer closeStore(st)

	record := func(ctx context.Context) error {
		report, err := databaseReport(ctx, client, 0)
		if err != nil {
			return err
		}
		snap := store.NewSnapshot(model.ModeDatabase, 0, report.Categories, report.Counts)
		id, err := st.InsertSnapshot(ctx, snap)
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		return writeOut(cmd.OutOrStdout(), "Recorded snapshot #%d (%d categories, %d questions)\n", id, len(snap.Counts), snap.Total)
	}

	if snapshotEvery == 0 {
		return record(cmd.Context())
	}
	sched := scheduler.New(log)
	if err := sched.Every(cmd.Context(), "snapshot", snapshotEvery, record); err != nil {
		return err
	}
	logErrf("Recording a snapshot every %s. Press Ctrl+C to stop.\n", snapshotEvery)
	sched.Run(cmd.Context())
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded snapshots",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyMode, "mode", "", "only database or sample snapshots")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N snapshots")
	cmd.Flags().Int64Var(&historyShow, "show", 0, "print the per-category rows of one snapshot id")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if settings.NoHistory {
		return fmt.Errorf("history is disabled")
	}
	filter, err := historyFilter(historyMode, historySince, historyLast)
	if err != nil {
		return err
	}
	st, err := openStore(settings)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if historyShow > 0 {
		rows, err := st.SnapshotCounts(cmd.Context(), historyShow)
		if err != nil {
			return fmt.Errorf("failed to load snapshot %d: %w", historyShow, err)
		}
		categories, counts := splitSnapshotCounts(rows)
		return stats.RenderCategoryTable(cmd.OutOrStdout(), categories, counts)
	}

	snapshots, err := st.ListSnapshots(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), snapshots, 0, false)
}

func historyFilter(mode, since string, last int) (model.HistoryFilter, error) {
	var filter model.HistoryFilter
	if mode != "" {
		parsed, err := model.ParseMode(mode)
		if err != nil {
			return filter, fmt.Errorf("--mode: %w", err)
		}
		filter.Mode = &parsed
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if last < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	filter.Last = last
	return filter, nil
}

func splitSnapshotCounts(rows []model.SnapshotCount) ([]model.Category, []model.CategoryQuestionCount) {
	categories := make([]model.Category, 0, len(rows))
	counts := make([]model.CategoryQuestionCount, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, model.Category{ID: r.CategoryID, Name: r.CategoryName})
		counts = append(counts, model.CategoryQuestionCount{CategoryID: r.CategoryID, Counts: r.Counts})
	}
	return categories, counts
}

// databaseReport fetches database counts, for one category when id > 0.
func databaseReport(ctx context.Context, client *opentdb.Client, categoryID int) (stats.Report, error) {
	categories, err := client.FetchCategories(ctx)
	if err != nil {
		return stats.Report{}, fmt.Errorf("failed to fetch categories: %w", err)
	}
	if categoryID > 0 {
		count, err := client.FetchCategoryCount(ctx, categoryID)
		if err != nil {
			return stats.Report{}, fmt.Errorf("failed to fetch category %d: %w", categoryID, err)
		}
		return stats.BuildReport(model.ModeDatabase, 0, categories, []model.CategoryQuestionCount{count}, &categoryID), nil
	}
	counts, err := client.FetchAllCategoryCounts(ctx, categories, progressPrinter())
	logErrln()
	if err != nil {
		return stats.Report{}, fmt.Errorf("failed to fetch counts: %w", err)
	}
	return stats.BuildReport(model.ModeDatabase, 0, categories, counts, nil), nil
}

func sampleReport(ctx context.Context, client *opentdb.Client, amount, categoryID int, difficulty model.Difficulty) (stats.Report, error) {
	categories, err := client.FetchCategories(ctx)
	if err != nil {
		return stats.Report{}, fmt.Errorf("failed to fetch categories: %w", err)
	}
	questions, err := client.FetchQuestions(ctx, amount, categoryID, difficulty)
	if err != nil {
		return stats.Report{}, fmt.Errorf("failed to fetch questions: %w", err)
	}
	counts := stats.AggregateSample(questions, categories)
	var selected *int
	if categoryID > 0 {
		selected = &categoryID
	}
	return stats.BuildReport(model.ModeSample, amount, categories, counts, selected), nil
}

func progressPrinter() opentdb.ProgressFunc {
	return func(completed, total int) {
		logErrf("\rLoading question counts... %d/%d", completed, total)
	}
}
