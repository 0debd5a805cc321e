package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the fallback cache.",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached filters with their size and age.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cfg, metadata.NewRecorder(newLogger(cfg, cmd.ErrOrStderr())))
		if err != nil {
			return err
		}
		defer closeStore()

		listings, err := store.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(listings) == 0 {
			fmt.Fprintln(out, "cache is empty")
			return nil
		}

		now := time.Now()
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tWORKS\tWRITTEN\tAGE\tSTALE")
		for _, l := range listings {
			age := now.Sub(l.WrittenAt)
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%t\n",
				l.Key, l.Count, l.WrittenAt.Format(time.RFC3339), age.Truncate(time.Second), age > cfg.CacheTTL())
		}
		return tw.Flush()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cfg, metadata.NewRecorder(newLogger(cfg, cmd.ErrOrStderr())))
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
