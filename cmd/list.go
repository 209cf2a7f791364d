package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/animecal/anilist"
	"github.com/s0up4200/animecal/calendar"
	"github.com/s0up4200/animecal/filter"
)

var listPresets bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List upcoming releases matching the filter criteria",
	Long: `List upcoming theatrical anime releases from AniList, including those without
a confirmed release day that are left out of the calendar.`,
	Example: `  animecal list
  animecal list --filter 'hasLink("INFO") and daysUntil(releaseDate()) < 90'
  animecal list --preset official
  animecal list --presets`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	listCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	listCmd.Flags().BoolVar(&listPresets, "presets", false, "list the preset filters defined in config and exit")
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(nil)
	if err != nil {
		return err
	}

	if listPresets {
		printPresets(cmd.OutOrStdout(), p.filters)
		return nil
	}

	f, err := p.resolveFilter(filterExpr, preset)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	media, err := p.paginator.FetchAll(ctx)
	if err != nil {
		return err
	}

	media, err = p.filters.Apply(ctx, f, media)
	if err != nil {
		return err
	}

	printReleases(cmd.OutOrStdout(), media)
	return nil
}

// printReleases writes one line per release plus its links
func printReleases(w io.Writer, media []anilist.Media) {
	if len(media) == 0 {
		fmt.Fprintln(w, "No upcoming releases found matching the filter criteria.")
		return
	}

	fmt.Fprintf(w, "\nFound %d upcoming releases:\n", len(media))
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, m := range media {
		title := m.NativeTitle()
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "• %s  %s\n", releaseLabel(m.StartDate), title)
		fmt.Fprintf(w, "  %s\n", m.SiteURL)
		for _, l := range m.LinksOfType(anilist.InfoLinkType) {
			fmt.Fprintf(w, "  %s\n", l.URL)
		}
	}
}

// printPresets writes the registered preset names with their expressions
func printPresets(w io.Writer, filters *filter.Manager) {
	names := filters.ListFilters()
	if len(names) == 0 {
		fmt.Fprintln(w, "No preset filters defined in config.")
		return
	}

	fmt.Fprintf(w, "\nAvailable presets (%d):\n", len(names))
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, name := range names {
		f, _ := filters.GetFilter(name)
		fmt.Fprintf(w, "• %s: %s\n", name, f.Expression())
	}
}

// releaseLabel formats a possibly partial release date
func releaseLabel(d anilist.FuzzyDate) string {
	if t, ok := calendar.ReleaseDate(d); ok {
		return t.Format("2006-01-02")
	}
	switch {
	case d.Year != nil && d.Month != nil:
		return fmt.Sprintf("%04d-%02d-??", *d.Year, *d.Month)
	case d.Year != nil:
		return fmt.Sprintf("%04d-??-??", *d.Year)
	default:
		return "TBA       "
	}
}
