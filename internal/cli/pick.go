package cmd

import (
	"bytes"
	"fmt"

	"github.com/rohmanhakim/fic-roulette/internal/config"
	"github.com/rohmanhakim/fic-roulette/internal/orchestrator"
	"github.com/rohmanhakim/fic-roulette/internal/render"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/internal/storage"
	"github.com/spf13/cobra"
)

var (
	pickTags       []string
	pickCategories []string
	pickFandom     string
	pickFormat     string
	noColor        bool
	saveDir        string
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick one random work matching a filter.",
	Example: `  fic-roulette pick --tag Fluff --category F/F
  fic-roulette pick --fandom "Harry Potter - J. K. Rowling" --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(pickFormat)
		if err != nil {
			return err
		}
		filter, err := buildFilter(pickTags, pickCategories, pickFandom)
		if err != nil {
			return err
		}

		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		a, err := newApp(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		a.honorCrawlDelay(cmd.Context())

		result := a.orchestrator.GetRandomItem(cmd.Context(), filter)
		if err := render.Write(cmd.OutOrStdout(), format, result, noColor); err != nil {
			return err
		}
		if result.Item == nil {
			return errSilentExit
		}
		if saveDir != "" {
			return savePick(cmd, a, result, format)
		}
		return nil
	},
}

// savePick writes the rendered pick, without colour, under saveDir.
func savePick(cmd *cobra.Command, a *app, result orchestrator.Result, format render.Format) error {
	var buf bytes.Buffer
	if err := render.Write(&buf, format, result, true); err != nil {
		return err
	}
	sink := storage.NewLocalSink(a.sink, a.cfg.HashAlgo())
	written, err := sink.Write(saveDir, *result.Item, buf.Bytes(), format.Ext())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved to %s\n", written.Path())
	return nil
}

// buildFilter validates raw flag values into a Filter.
func buildFilter(tags []string, categories []string, fandom string) (search.Filter, error) {
	cats, err := search.ParseCategories(categories)
	if err != nil {
		return search.Filter{}, err
	}
	filter := search.NewFilter(tags, cats, fandom)
	if filter.IsEmpty() {
		return search.Filter{}, fmt.Errorf("%w: provide at least one --tag, --category or --fandom", config.ErrInvalidConfig)
	}
	return filter, nil
}

func resetPickFlags() {
	pickTags = []string{}
	pickCategories = []string{}
	pickFandom = ""
	pickFormat = string(render.FormatText)
	noColor = false
	saveDir = ""
}

func init() {
	pickCmd.Flags().StringArrayVar(&pickTags, "tag", []string{}, "tag the work must carry (can be repeated)")
	pickCmd.Flags().StringArrayVar(&pickCategories, "category", []string{}, "relationship category: F/F, F/M, M/M, Multi, Other or Gen (can be repeated)")
	pickCmd.Flags().StringVar(&pickFandom, "fandom", "", "fandom name as the archive spells it")
	pickCmd.Flags().StringVar(&pickFormat, "format", string(render.FormatText), "output format: text, json, markdown or html")
	pickCmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured text output")
	pickCmd.Flags().StringVar(&saveDir, "save", "", "also save the pick into this directory, named by the work's URL hash")
	rootCmd.AddCommand(pickCmd)
}
