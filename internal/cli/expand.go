package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/expand"
)

var expandJSON bool

var expandCmd = &cobra.Command{
	Use:   "expand <query>",
	Short: "Expand a query into variants, related terms and search tips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := expand.New().Expand(args[0])
		if expandJSON {
			return writeJSON(os.Stdout, e)
		}

		fmt.Printf("Query: %s\n", e.Original)
		printList("Expanded queries", e.Expanded)
		printList("Related terms", e.RelatedTerms)
		printList("Question forms", e.QuestionForms)
		printList("Related searches", e.RelatedSearches)
		printList("Search tips", e.SearchTips)
		return nil
	},
}

func init() {
	expandCmd.Flags().BoolVar(&expandJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(expandCmd)
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
