package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/session"
)

func newBoostedTemplateCmd() *cobra.Command {
	var (
		output   string
		existing string
	)

	cmd := &cobra.Command{
		Use:   "boosted-template POSTS_FILE",
		Short: "Сформировать boosted_config.csv по выгрузке публикаций",
		Long: "Создает редактируемую таблицу продвижения: по строке на каждую публикацию.\n" +
			"Отметки из --existing переносятся в новую таблицу.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig(cfgFile)
			if err != nil {
				return err
			}
			return runBoostedTemplate(cmd.Context(), cfg, args[0], existing, output, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "boosted_config.csv", "путь к создаваемому файлу")
	cmd.Flags().StringVar(&existing, "existing", "", "существующий boosted_config.csv")
	return cmd
}

func runBoostedTemplate(ctx context.Context, cfg config.AppConfig, postsPath, existingPath, outputPath string, stderr io.Writer) error {
	logger := utils.NewLoggerWithOutput(stderr, cfg.EnableDetailedLogging || verbose)
	p := pipeline.NewPipeline(cfg, nil, nil, logger)
	sess := session.NewStore(0, logger).Create()

	if err := ingestExpecting(ctx, p, sess, postsPath, models.TablePosts); err != nil {
		return err
	}
	if existingPath != "" {
		if err := ingestExpecting(ctx, p, sess, existingPath, models.TableBoostedConfig); err != nil {
			return err
		}
	}

	entries := p.BoostedTemplate(sess)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("ошибка создания файла %s: %w", outputPath, err)
	}
	defer f.Close()

	if err := load.WriteBoostedConfigCSV(f, entries); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("✅ Таблица продвижения на %d публикаций сохранена в %s", len(entries), outputPath)
	return nil
}

// ingestExpecting загружает файл как таблицу заданного типа
func ingestExpecting(ctx context.Context, p *pipeline.Pipeline, sess *session.Session, path string, kind models.TableKind) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}
	_, err = p.IngestKind(ctx, sess, filepath.Base(path), data, kind)
	return err
}
