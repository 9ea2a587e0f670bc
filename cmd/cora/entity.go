package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

// entityRow is the common list shape of characters, events and places.
type entityRow struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Desc  string `json:"desc,omitempty"`
	Dates string `json:"dates,omitempty"`
}

func listEntities(kind types.LinkKind, projectID int64) []entityRow {
	var rows []entityRow
	switch kind {
	case types.LinkCharacter:
		list, err := store.ListCharacters(rootCtx, projectID)
		fatalIf(err, "failed to list characters")
		for _, c := range list {
			rows = append(rows, entityRow{ID: c.ID, Name: c.Name, Desc: c.Desc})
		}
	case types.LinkEvent:
		list, err := store.ListEvents(rootCtx, projectID)
		fatalIf(err, "failed to list events")
		for _, e := range list {
			dates := ""
			if e.StartDate != "" || e.EndDate != "" {
				dates = formatRange(e.StartDate, e.EndDate)
			}
			rows = append(rows, entityRow{ID: e.ID, Name: e.Name, Desc: e.Desc, Dates: dates})
		}
	case types.LinkPlace:
		list, err := store.ListPlaces(rootCtx, projectID)
		fatalIf(err, "failed to list places")
		for _, p := range list {
			rows = append(rows, entityRow{ID: p.ID, Name: p.Name, Desc: p.Desc})
		}
	}
	return rows
}

func createEntity(cmd *cobra.Command, kind types.LinkKind, projectID int64, name string) (int64, error) {
	desc, _ := cmd.Flags().GetString("desc")
	switch kind {
	case types.LinkCharacter:
		c, err := store.CreateCharacter(rootCtx, projectID, name, desc)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	case types.LinkEvent:
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		now := nowFunc()
		e, err := store.CreateEvent(rootCtx, &types.Event{
			ProjectID: projectID,
			Name:      name,
			Desc:      desc,
			StartDate: normalizeDate(start, now),
			EndDate:   normalizeDate(end, now),
		})
		if err != nil {
			return 0, err
		}
		return e.ID, nil
	}
	p, err := store.CreatePlace(rootCtx, projectID, name, desc)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func deleteEntity(kind types.LinkKind, id int64) error {
	switch kind {
	case types.LinkCharacter:
		return store.DeleteCharacter(rootCtx, id)
	case types.LinkEvent:
		return store.DeleteEvent(rootCtx, id)
	}
	return store.DeletePlace(rootCtx, id)
}

func describeEntity(kind types.LinkKind, id int64, desc string) error {
	var err error
	switch kind {
	case types.LinkCharacter:
		_, err = store.UpdateCharacter(rootCtx, id, types.CharacterUpdate{Desc: &desc})
	case types.LinkEvent:
		_, err = store.UpdateEvent(rootCtx, id, types.EventUpdate{Desc: &desc})
	default:
		_, err = store.UpdatePlace(rootCtx, id, types.PlaceUpdate{Desc: &desc})
	}
	return err
}

// newEntityCmd builds the add/list/describe/delete/attach/detach family for
// one entity kind.
func newEntityCmd(kind types.LinkKind, plural string) *cobra.Command {
	name := string(kind)
	parent := &cobra.Command{
		Use:     name,
		Aliases: []string{plural},
		GroupID: "story",
		Short:   "Manage " + plural,
	}

	add := &cobra.Command{
		Use:         "add <name>",
		Short:       "Add a " + name,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationMutates: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			p := currentProject()
			id, err := createEntity(cmd, kind, p.ID, args[0])
			fatalIf(err, "failed to add "+name)
			if jsonOutput {
				outputJSON(map[string]interface{}{"id": id, "name": args[0], "kind": kind})
				return
			}
			fmt.Printf("%s Added %s %s (#%d)\n", ui.RenderPass("✓"), name, ui.RenderAccent(args[0]), id)
		},
	}
	add.Flags().String("desc", "", "Description")
	if kind == types.LinkEvent {
		add.Flags().String("start", "", "Start date (calendar, natural language or free-form)")
		add.Flags().String("end", "", "End date")
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + plural,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			p := currentProject()
			rows := listEntities(kind, p.ID)
			if jsonOutput {
				if rows == nil {
					rows = []entityRow{}
				}
				outputJSON(rows)
				return
			}
			headers := []string{"ID", "Name", "Description"}
			if kind == types.LinkEvent {
				headers = append(headers, "Dates")
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				row := []string{strconv.FormatInt(r.ID, 10), r.Name, r.Desc}
				if kind == types.LinkEvent {
					row = append(row, r.Dates)
				}
				table = append(table, row)
			}
			fmt.Println(ui.RenderTable(headers, table, fmt.Sprintf("No %s yet. Add one with 'cora %s add <name>'.", plural, name)))
		},
	}

	describe := &cobra.Command{
		Use:         "describe <" + name + "> <text|->",
		Short:       "Replace a " + name + "'s description",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationMutates: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			p := currentProject()
			c := resolveEntity(kind, p.ID, args[0])
			fatalIf(describeEntity(kind, c.ID, textArg(args[1])), "failed to update "+name)
			if !jsonOutput {
				fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), c.Name)
			}
		},
	}

	del := &cobra.Command{
		Use:         "delete <" + name + ">",
		Short:       "Delete a " + name + " and its links",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationMutates: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			p := currentProject()
			c := resolveEntity(kind, p.ID, args[0])
			if !confirm(fmt.Sprintf("Delete %s %q?", name, c.Name), "It is detached from every document and group.") {
				fmt.Println("Cancelled.")
				return
			}
			fatalIf(deleteEntity(kind, c.ID), "failed to delete "+name)
			if jsonOutput {
				outputJSON(map[string]interface{}{"deleted": c.ID})
				return
			}
			fmt.Printf("%s Deleted %s %s\n", ui.RenderPass("✓"), name, c.Name)
		},
	}

	parent.AddCommand(add, list, describe, del, newLinkCmd(kind, true), newLinkCmd(kind, false))
	return parent
}

// newLinkCmd builds "attach" (attach=true) or "detach" for kind. The target
// is a document, or a group with --group.
func newLinkCmd(kind types.LinkKind, attach bool) *cobra.Command {
	name := string(kind)
	verb, prep := "attach", "to"
	if !attach {
		verb, prep = "detach", "from"
	}
	cmd := &cobra.Command{
		Use:         fmt.Sprintf("%s <%s> <doc>", verb, name),
		Short:       fmt.Sprintf("%s a %s %s a document (or a group with --group)", capitalize(verb), name, prep),
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationMutates: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			p := currentProject()
			c := resolveEntity(kind, p.ID, args[0])
			onGroup, _ := cmd.Flags().GetBool("group")

			var (
				target string
				err    error
			)
			if onGroup {
				g := resolveGroup(p.ID, args[1])
				target = g.Name
				if attach {
					err = store.AttachToGroup(rootCtx, kind, g.ID, c.ID)
				} else {
					err = store.DetachFromGroup(rootCtx, kind, g.ID, c.ID)
				}
			} else {
				d := resolveDocument(p.ID, args[1])
				target = d.Name
				if attach {
					err = store.AttachToDocument(rootCtx, kind, d.ID, c.ID)
				} else {
					err = store.DetachFromDocument(rootCtx, kind, d.ID, c.ID)
				}
			}
			fatalIf(err, "failed to "+verb+" "+name)

			if jsonOutput {
				outputJSON(map[string]interface{}{verb + "ed": c.ID, "target": target})
				return
			}
			fmt.Printf("%s %sed %s %s %s\n", ui.RenderPass("✓"), capitalize(verb), c.Name, prep, target)
		},
	}
	cmd.Flags().Bool("group", false, "Treat the target as a group")
	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func init() {
	rootCmd.AddCommand(
		newEntityCmd(types.LinkCharacter, "characters"),
		newEntityCmd(types.LinkEvent, "events"),
		newEntityCmd(types.LinkPlace, "places"),
	)
}
