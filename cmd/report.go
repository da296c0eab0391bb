package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/session"
)

// Форматы вывода отчета
const (
	outputText = "text"
	outputJSON = "json"
)

type reportOptions struct {
	start    string
	end      string
	hashtags []string
	bucket   string
	output   string
	export   string
}

func newReportCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report FILE...",
		Short: "Рассчитать дашборд по файлам на диске",
		Long: "Загружает выгрузки LinkedIn (публикации, ежедневные метрики, boosted_config.csv),\n" +
			"тип каждого файла определяется по заголовкам.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig(cfgFile)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cfg, args, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "начало диапазона дат (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "конец диапазона дат (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&opts.hashtags, "hashtag", nil, "фильтр по хэштегу (можно повторять)")
	cmd.Flags().StringVar(&opts.bucket, "bucket", "day", "интервал трендов: day|week|month")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "формат вывода: text|json")
	cmd.Flags().StringVar(&opts.export, "export", "", "сохранить отфильтрованные публикации в CSV")

	return cmd
}

func runReport(ctx context.Context, cfg config.AppConfig, files []string, opts reportOptions, stdout, stderr io.Writer) error {
	if opts.output != outputText && opts.output != outputJSON {
		return fmt.Errorf("неизвестный формат вывода %q", opts.output)
	}

	criteria, err := models.ParseCriteria(opts.start, opts.end, opts.hashtags, opts.bucket)
	if err != nil {
		return err
	}

	logger := utils.NewLoggerWithOutput(stderr, cfg.EnableDetailedLogging || verbose)
	p := pipeline.NewPipeline(cfg, nil, nil, logger)
	sess := session.NewStore(0, logger).Create()

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("ошибка чтения файла %s: %w", path, err)
		}
		result, err := p.Ingest(ctx, sess, filepath.Base(path), data)
		if err != nil {
			// Файл с неверным форматом пропускается, остальные таблицы остаются доступны
			logger.Error("❌ %v", err)
			continue
		}
		for _, w := range result.Warnings {
			logger.Warn("%s: %s", result.FileName, w.Message())
		}
	}

	dashboard, err := p.ComputeSession(pipeline.TriggerReport, sess, criteria)
	if err != nil {
		return err
	}

	if opts.export != "" {
		if err := exportPosts(opts.export, dashboard, p.TrackedMetrics()); err != nil {
			return err
		}
		logger.Info("✅ Публикации сохранены в %s", opts.export)
	}

	if opts.output == outputJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dashboard)
	}
	return writeTextReport(stdout, dashboard)
}

func exportPosts(path string, dashboard *models.Dashboard, tracked []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ошибка создания файла %s: %w", path, err)
	}
	defer f.Close()

	if err := load.WritePostsCSV(f, dashboard.Posts, dashboard.PostFlags, tracked); err != nil {
		return err
	}
	return f.Close()
}

// writeTextReport печатает сводку дашборда в виде таблиц
func writeTextReport(w io.Writer, d *models.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Публикаций: %d\n", len(d.Posts))
	if d.DateBounds != nil {
		fmt.Fprintf(tw, "Период данных: %s .. %s\n",
			d.DateBounds.Start.Format(models.DateLayout), d.DateBounds.End.Format(models.DateLayout))
	}
	if len(d.Hashtags) > 0 {
		fmt.Fprintf(tw, "Хэштеги: %s\n", strings.Join(d.Hashtags, " "))
	}

	if !d.Benchmarks.Empty() {
		fmt.Fprintln(tw, "\nБенчмарки")
		fmt.Fprintln(tw, "Метрика\tСреднее\tМедиана\tПубликаций")
		for _, metric := range d.Benchmarks.Order {
			b := d.Benchmarks.Metrics[metric]
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%d\n", metric, b.Mean, b.Median, b.Count)
		}
	}

	if len(d.Flags) > 0 {
		fmt.Fprintln(tw, "\nОтклонения от среднего")
		fmt.Fprintln(tw, "Публикация\tФлаги")
		for i, p := range d.Posts {
			var flags []models.Flag
			if i < len(d.PostFlags) {
				flags = d.PostFlags[i]
			}
			if len(flags) == 0 {
				continue
			}
			labels := make([]string, 0, len(flags))
			for _, f := range flags {
				labels = append(labels, f.String())
			}
			fmt.Fprintf(tw, "%s\t%s\n", p.Title, strings.Join(labels, ", "))
		}
	}

	if len(d.Weekday) > 0 {
		fmt.Fprintln(tw, "\nВовлеченность по дням недели")
		fmt.Fprintln(tw, "День\tEngagement Rate\tПубликаций")
		for _, wd := range d.Weekday {
			fmt.Fprintf(tw, "%s\t%.2f\t%d\n", wd.Weekday, wd.EngagementRate, wd.Posts)
		}
	}

	if len(d.Trends) > 0 {
		fmt.Fprintf(tw, "\nТренды (%s)\n", d.Criteria.Bucket)
		fmt.Fprintf(tw, "Интервал\t%s\n", strings.Join(d.MetricColumns, "\t"))
		for _, bucket := range d.Trends {
			values := make([]string, 0, len(d.MetricColumns))
			for _, column := range d.MetricColumns {
				v, ok := bucket.Values[column]
				if !ok {
					values = append(values, "-")
					continue
				}
				values = append(values, fmt.Sprintf("%.2f", v))
			}
			fmt.Fprintf(tw, "%s\t%s\n", bucket.Label, strings.Join(values, "\t"))
		}

		if len(d.TrendLines) > 0 {
			fmt.Fprintln(tw, "\nЛинии тренда")
			fmt.Fprintln(tw, "Метрика\tНаклон\tСдвиг\tR²")
			for _, column := range d.MetricColumns {
				line, ok := d.TrendLines[column]
				if !ok {
					continue
				}
				fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\n", column, line.Slope, line.Intercept, line.R2)
			}
		}
	}

	return tw.Flush()
}
