package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finqa-be",
	Short: "RAG-based financial statement Q&A backend",
	Long: `finqa-be is a question-answering service over uploaded financial PDF
documents. PDFs are extracted, chunked and indexed in Weaviate; questions
are answered by a language model grounded in the retrieved chunks, with
citations back to source pages.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}
