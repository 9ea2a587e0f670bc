package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC3339,
	"2006-01-02 15:04",
}

// nowFunc is the reference time for natural-language dates.
var nowFunc = time.Now

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// normalizeDate turns user input into a stored timeline date. Calendar
// forms are kept as typed, natural language ("next friday", "in 3 days") is
// resolved against now to YYYY-MM-DD, and anything else is kept verbatim
// since story dates need not be real calendar dates.
func normalizeDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return s
		}
	}
	r, err := dateParser.Parse(s, now)
	if err != nil || r == nil {
		return s
	}
	// Only take the parse when it covers the whole input.
	if len(strings.TrimSpace(r.Text)) < len(s) {
		return s
	}
	return r.Time.Format("2006-01-02")
}

func formatRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return "(no dates)"
	case end == "":
		return start
	case start == "":
		return "until " + end
	}
	return start + " → " + end
}

// timelineTarget resolves "<kind> <name>" to a timeline entity.
func timelineTarget(kind, term string) (types.TimelineEntity, int64, string) {
	switch strings.ToLower(kind) {
	case "project":
		p := resolveProject(term)
		return types.TimelineProject, p.ID, p.Name
	case "doc", "document":
		p := currentProject()
		d := resolveDocument(p.ID, term)
		return types.TimelineDoc, d.ID, d.Name
	case "group", "folder":
		p := currentProject()
		g := resolveGroup(p.ID, term)
		return types.TimelineFolder, g.ID, g.Name
	case "event":
		p := currentProject()
		c := resolveEntity(types.LinkEvent, p.ID, term)
		return types.TimelineEvent, c.ID, c.Name
	}
	FatalErrorRespectJSON("unknown timeline target %q (want project, doc, group or event)", kind)
	return "", 0, ""
}

var timelineCmd = &cobra.Command{
	Use:     "timeline",
	GroupID: "story",
	Short:   "Attach date ranges to projects, documents, groups and events",
}

var timelineSetCmd = &cobra.Command{
	Use:   "set <project|doc|group|event> <name>",
	Short: "Set the date range of a record",
	Long: `Set the start and end dates of a record's timeline, replacing any
existing range.

Dates may be calendar dates (2024-05-01), natural language resolved against
today ("next friday", "in 2 weeks"), or free-form story dates kept verbatim
("Year 3 of the Reign").`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		entity, id, name := timelineTarget(args[0], args[1])
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		now := nowFunc()

		tl, err := store.CreateTimeline(rootCtx, &types.Timeline{
			EntityType: entity,
			EntityID:   id,
			StartDate:  normalizeDate(start, now),
			EndDate:    normalizeDate(end, now),
		})
		fatalIf(err, "failed to set timeline")

		if jsonOutput {
			outputJSON(tl)
			return
		}
		fmt.Printf("%s %s: %s\n", ui.RenderPass("✓"), name, formatRange(tl.StartDate, tl.EndDate))
	},
}

var timelineShowCmd = &cobra.Command{
	Use:   "show <project|doc|group|event> <name>",
	Short: "Show a record's date range",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		entity, id, name := timelineTarget(args[0], args[1])
		tl, err := store.GetTimelineByEntity(rootCtx, entity, id)
		fatalIf(err, "no timeline for "+name)

		if jsonOutput {
			outputJSON(tl)
			return
		}
		fmt.Printf("%s: %s\n", name, formatRange(tl.StartDate, tl.EndDate))
	},
}

var timelineClearCmd = &cobra.Command{
	Use:         "clear <project|doc|group|event> <name>",
	Short:       "Remove a record's date range",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		entity, id, name := timelineTarget(args[0], args[1])
		fatalIf(store.DeleteTimelineByEntity(rootCtx, entity, id), "failed to clear timeline")
		if !jsonOutput {
			fmt.Printf("%s Cleared timeline of %s\n", ui.RenderPass("✓"), name)
		}
	},
}

var timelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every stored timeline",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		timelines, err := store.ListTimelines(rootCtx)
		fatalIf(err, "failed to list timelines")

		if jsonOutput {
			if timelines == nil {
				timelines = []*types.Timeline{}
			}
			outputJSON(timelines)
			return
		}
		rows := make([][]string, 0, len(timelines))
		for _, tl := range timelines {
			rows = append(rows, []string{
				strconv.FormatInt(tl.ID, 10),
				string(tl.EntityType),
				strconv.FormatInt(tl.EntityID, 10),
				formatRange(tl.StartDate, tl.EndDate),
			})
		}
		fmt.Println(ui.RenderTable([]string{"ID", "Type", "Record", "Dates"}, rows, "No timelines."))
	},
}

func init() {
	timelineSetCmd.Flags().String("start", "", "Start date")
	timelineSetCmd.Flags().String("end", "", "End date")

	timelineCmd.AddCommand(timelineSetCmd, timelineShowCmd, timelineClearCmd, timelineListCmd)
	rootCmd.AddCommand(timelineCmd)
}
