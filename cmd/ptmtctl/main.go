package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildRootCmd constructs the Cobra command tree wired to a daemon client.
func buildRootCmd() *cobra.Command {
	defaultBase := "http://localhost:8080"
	if v := os.Getenv("PTMTD_URL"); v != "" {
		defaultBase = v
	}

	var c client

	root := &cobra.Command{
		Use:           "ptmtctl",
		Short:         "Client for a running ptmtd daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.base, "url", defaultBase, "Base URL of the daemon (defaults PTMTD_URL or http://localhost:8080)")

	createTitle := ""
	createPaper := ""
	createKeywords := []string{}
	createCmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a curriculum record",
		Example: "  ptmtctl create --title \"Attention Is All You Need\" --keyword transformer --keyword attention",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.create(createTitle, createPaper, createKeywords)
		},
	}
	createCmd.Flags().StringVar(&createTitle, "title", "", "Curriculum title")
	createCmd.Flags().StringVar(&createPaper, "paper-title", "", "Source paper title")
	createCmd.Flags().StringArrayVar(&createKeywords, "keyword", nil, "Keyword (repeatable)")

	generateCmd := &cobra.Command{
		Use:   "generate <curriculum-id>",
		Short: "Start curriculum generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.generate(args[0])
		},
	}
	statusCmd := &cobra.Command{
		Use:   "status <curriculum-id>",
		Short: "Show generation status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.status(args[0])
		},
	}
	graphCmd := &cobra.Command{
		Use:   "graph <curriculum-id>",
		Short: "Fetch the generated curriculum graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.graph(args[0])
		},
	}
	queueCmd := &cobra.Command{
		Use:   "queue-status",
		Short: "Show key slot queue state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.queueStatus(cmd.Flags().Lookup("task-id").Value.String())
		},
	}
	queueCmd.Flags().String("task-id", "", "Optional task id to report position for")

	root.AddCommand(createCmd, generateCmd, statusCmd, graphCmd, queueCmd)
	return root
}
