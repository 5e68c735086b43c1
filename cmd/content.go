package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect the portfolio content set.",
}

var contentCheckCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Validate a content directory, or the built-in set when none is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		store, err := loadContent(dir)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "KIND\tCOUNT\t")
		fmt.Fprintf(w, "experience\t%d\t\n", len(store.Jobs()))
		fmt.Fprintf(w, "projects\t%d\t\n", len(store.Projects()))
		fmt.Fprintf(w, "skill groups\t%d\t\n", len(store.Skills().Groups))
		fmt.Fprintf(w, "education\t%d\t\n", len(store.Education()))
		fmt.Fprintf(w, "certifications\t%d\t\n", len(store.Certifications()))
		fmt.Fprintf(w, "ideas\t%d\t\n", len(store.Ideas()))
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "content version %d OK\n", store.Version())
		return nil
	},
}

func init() {
	contentCmd.AddCommand(contentCheckCmd)
	rootCmd.AddCommand(contentCmd)
}
