package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"churn-profit/internal/common"
	"churn-profit/internal/storage"

	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived evaluation runs",
	}
	cmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "Archive directory (default from DATA_PATH)")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(dataPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one archived run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(dataPath)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func openArchive(dataPath string) (*storage.Store, error) {
	if dataPath == "" {
		dataPath = os.Getenv(common.EnvDataPath)
	}
	if dataPath == "" {
		return nil, fmt.Errorf("no archive: set --data-path or %s", common.EnvDataPath)
	}
	return storage.New(dataPath)
}

func printRuns(w io.Writer, runs []storage.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs archived")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tBEST\tTHRESHOLD\tPROFIT\tMODELS\tFAILED")
	for _, r := range runs {
		best, threshold, profit := "-", "-", "-"
		if r.Best != nil {
			best = r.Best.Model
			threshold = fmt.Sprintf("%.4f", r.Best.Threshold)
			profit = fmt.Sprintf("%.4f", r.Best.Profit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), best, threshold, profit, len(r.Models), len(r.Failures))
	}
	return tw.Flush()
}
