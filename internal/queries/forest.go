package queries

import (
	"sort"

	"github.com/untoldecay/cora/internal/types"
)

// GroupNode is a group with its ordered children.
type GroupNode struct {
	Group     *types.Group
	Groups    []*GroupNode
	Documents []*types.Document
}

// Forest is a project's full tree: ordered root groups plus the unfiled
// documents, which belong to no group.
type Forest struct {
	Roots   []*GroupNode
	Unfiled []*types.Document
}

// BuildForest assembles groups and documents into a Forest. Siblings are
// ordered by sort order, then id; documents without a sort order follow the
// ordered ones. Groups whose parent is missing are treated as roots and
// documents of a missing group as unfiled.
func BuildForest(groups []*types.Group, docs []*types.Document) *Forest {
	nodes := make(map[int64]*GroupNode, len(groups))
	for _, g := range groups {
		nodes[g.ID] = &GroupNode{Group: g}
	}

	f := &Forest{}
	for _, g := range groups {
		node := nodes[g.ID]
		if g.ParentID != nil {
			if parent, ok := nodes[*g.ParentID]; ok {
				parent.Groups = append(parent.Groups, node)
				continue
			}
		}
		f.Roots = append(f.Roots, node)
	}
	for _, d := range docs {
		if d.GroupID != nil {
			if parent, ok := nodes[*d.GroupID]; ok {
				parent.Documents = append(parent.Documents, d)
				continue
			}
		}
		f.Unfiled = append(f.Unfiled, d)
	}

	sortGroupNodes(f.Roots)
	sortDocuments(f.Unfiled)
	for _, node := range nodes {
		sortGroupNodes(node.Groups)
		sortDocuments(node.Documents)
	}
	return f
}

// Walk visits every group depth-first in display order with its depth
// (0 for roots). Returning false from fn skips the group's subtree.
func (f *Forest) Walk(fn func(node *GroupNode, depth int) bool) {
	type frame struct {
		node  *GroupNode
		depth int
	}
	stack := make([]frame, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{f.Roots[i], 0})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.node, top.depth) {
			continue
		}
		for i := len(top.node.Groups) - 1; i >= 0; i-- {
			stack = append(stack, frame{top.node.Groups[i], top.depth + 1})
		}
	}
}

// Counts returns the number of groups and documents in the forest.
func (f *Forest) Counts() (groups, docs int) {
	docs = len(f.Unfiled)
	f.Walk(func(node *GroupNode, _ int) bool {
		groups++
		docs += len(node.Documents)
		return true
	})
	return groups, docs
}

func sortGroupNodes(nodes []*GroupNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Group, nodes[j].Group
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
}

func sortDocuments(docs []*types.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].SortOrder, docs[j].SortOrder
		switch {
		case a == nil && b == nil:
			return docs[i].ID < docs[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a < *b
		}
		return docs[i].ID < docs[j].ID
	})
}
