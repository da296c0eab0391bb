package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// NewRootCmd возвращает корневую команду linkedin-analytics
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "linkedin-analytics",
		Short:         "Дашборд аналитики публикаций LinkedIn",
		Long:          "Загрузка выгрузок LinkedIn, фильтрация, бенчмарки публикаций и тренды ежедневных метрик.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "путь к YAML-файлу конфигурации")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "подробное логирование")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newBoostedTemplateCmd())

	return rootCmd
}
