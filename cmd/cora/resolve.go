package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/untoldecay/cora/internal/config"
	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

var projectFlag string

func maxFuzzyErrors() int {
	return config.GetInt("ui.fuzzy-max-errors")
}

// currentProject resolves the project a command works on: --project, then
// the "project" config key, then the only project when exactly one exists.
func currentProject() *types.Project {
	term := projectFlag
	if term == "" {
		term = config.GetString("project")
	}
	if term != "" {
		return resolveProject(term)
	}

	projects, err := store.ListProjects(rootCtx)
	fatalIf(err, "failed to list projects")
	switch len(projects) {
	case 0:
		FatalErrorRespectJSON("no projects yet (create one with 'cora project create <name>')")
	case 1:
		return projects[0]
	}
	FatalErrorRespectJSON("%d projects exist; pick one with --project or 'cora config set project <name>'", len(projects))
	return nil
}

func resolveProject(term string) *types.Project {
	projects, err := store.ListProjects(rootCtx)
	fatalIf(err, "failed to list projects")
	cands := make([]queries.Candidate, len(projects))
	byID := make(map[int64]*types.Project, len(projects))
	for i, p := range projects {
		cands[i] = queries.Candidate{ID: p.ID, Name: p.Name}
		byID[p.ID] = p
	}
	c, err := queries.Resolve("project", term, cands, maxFuzzyErrors())
	fatalIf(err, "failed to resolve project")
	return byID[c.ID]
}

// isNoGroup reports whether term names the top level rather than a group.
func isNoGroup(term string) bool {
	switch strings.ToLower(strings.TrimSpace(term)) {
	case "", "-", "none", "root", "unfiled":
		return true
	}
	return false
}

// resolveGroupRef resolves an optional group term; "-", "root", "none" and
// "unfiled" mean no group.
func resolveGroupRef(projectID int64, term string) *int64 {
	if isNoGroup(term) {
		return nil
	}
	return &resolveGroup(projectID, term).ID
}

func resolveGroup(projectID int64, term string) *types.Group {
	groups, err := store.ListGroups(rootCtx, projectID)
	fatalIf(err, "failed to list groups")
	cands := make([]queries.Candidate, len(groups))
	byID := make(map[int64]*types.Group, len(groups))
	for i, g := range groups {
		cands[i] = queries.Candidate{ID: g.ID, Name: g.Name}
		byID[g.ID] = g
	}
	c, err := queries.Resolve("group", term, cands, maxFuzzyErrors())
	fatalIf(err, "failed to resolve group")
	return byID[c.ID]
}

func resolveDocument(projectID int64, term string) *types.Document {
	docs, err := store.ListDocuments(rootCtx, projectID)
	fatalIf(err, "failed to list documents")
	cands := make([]queries.Candidate, len(docs))
	byID := make(map[int64]*types.Document, len(docs))
	for i, d := range docs {
		cands[i] = queries.Candidate{ID: d.ID, Name: d.Name}
		byID[d.ID] = d
	}
	c, err := queries.Resolve("document", term, cands, maxFuzzyErrors())
	fatalIf(err, "failed to resolve document")
	return byID[c.ID]
}

// entityCandidates lists a project's characters, events or places.
func entityCandidates(kind types.LinkKind, projectID int64) []queries.Candidate {
	var cands []queries.Candidate
	switch kind {
	case types.LinkCharacter:
		list, err := store.ListCharacters(rootCtx, projectID)
		fatalIf(err, "failed to list characters")
		for _, c := range list {
			cands = append(cands, queries.Candidate{ID: c.ID, Name: c.Name})
		}
	case types.LinkEvent:
		list, err := store.ListEvents(rootCtx, projectID)
		fatalIf(err, "failed to list events")
		for _, e := range list {
			cands = append(cands, queries.Candidate{ID: e.ID, Name: e.Name})
		}
	case types.LinkPlace:
		list, err := store.ListPlaces(rootCtx, projectID)
		fatalIf(err, "failed to list places")
		for _, p := range list {
			cands = append(cands, queries.Candidate{ID: p.ID, Name: p.Name})
		}
	}
	return cands
}

func resolveEntity(kind types.LinkKind, projectID int64, term string) queries.Candidate {
	c, err := queries.Resolve(string(kind), term, entityCandidates(kind, projectID), maxFuzzyErrors())
	fatalIf(err, fmt.Sprintf("failed to resolve %s", kind))
	return c
}

func parseID(s, what string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		FatalErrorRespectJSON("invalid %s id %q", what, s)
	}
	return id
}

// confirm asks before destructive commands unless --yes or --json is set.
func confirm(question, description string) bool {
	if assumeYes || jsonOutput {
		return true
	}
	ok, err := ui.Confirm(question, description, false)
	if err != nil {
		return false
	}
	return ok
}

func groupName(id *int64) string {
	if id == nil {
		return "(unfiled)"
	}
	g, err := store.GetGroup(rootCtx, *id)
	if err != nil {
		return fmt.Sprintf("#%d", *id)
	}
	return g.Name
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project name or id (default: config key 'project', or the only project)")
}
