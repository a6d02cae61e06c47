package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"hospredict/internal/exitcode"
	"hospredict/internal/metrics"
	"hospredict/internal/ml"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Load the configured models and print their metadata and feature schemas",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Print model info as JSON")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	mw := metrics.NewWrapper(metrics.NewWithRegistry(prometheus.NewRegistry()))
	models, err := ml.LoadModels(cmd.Context(), s.LoadConfig(), mw)
	if err != nil {
		return withCode(exitcode.ModelLoadError, err)
	}

	infos := ml.NewModelServer(models).Info()
	if modelsJSON {
		return writeJSON(cmd.OutOrStdout(), infos)
	}
	return printModelInfo(cmd.OutOrStdout(), infos)
}

func printModelInfo(w io.Writer, infos []ml.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tFORMAT\tVERSION\tCOLUMNS\tPATH")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", info.Name, info.Format, info.Version, len(info.Columns), info.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, info := range infos {
		fmt.Fprintf(w, "\n%s schema:\n  %s\n", info.Name, strings.Join(info.Columns, "\n  "))
	}
	return nil
}
