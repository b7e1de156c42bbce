package branch

import (
	"github.com/genecyber/NOESIS-sub002/stance"
)

// TreeNode is a read-only view of one branch and its live children.
type TreeNode struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	MessageCount int          `json:"message_count"`
	Frame        stance.Frame `json:"frame"`
	BranchIndex  int          `json:"branch_index"`
	IsActive     bool         `json:"is_active"`
	Depth        int          `json:"depth"`
	Children     []*TreeNode  `json:"children"`
}

// Tree assembles the branch tree from the root over non-archived children.
// The walk uses an explicit queue so depth is not bounded by the call stack.
func (m *Manager) Tree() *TreeNode {
	m.mu.RLock()
	defer m.mu.RUnlock()

	root, ok := m.branches[m.rootID]
	if !ok {
		return nil
	}

	children := make(map[string][]*Branch)
	for _, b := range m.sortedLocked(false) {
		if b.ID != m.rootID {
			children[b.ParentID] = append(children[b.ParentID], b)
		}
	}

	top := m.node(root, 0)
	queue := []*TreeNode{top}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range children[n.ID] {
			child := m.node(c, n.Depth+1)
			n.Children = append(n.Children, child)
			queue = append(queue, child)
		}
	}
	return top
}

func (m *Manager) node(b *Branch, depth int) *TreeNode {
	idx := -1
	if b.BranchPoint != nil {
		idx = b.BranchPoint.MessageIndex
	}
	return &TreeNode{
		ID:           b.ID,
		Name:         b.Name,
		MessageCount: len(b.Messages),
		Frame:        b.Stance.Frame,
		BranchIndex:  idx,
		IsActive:     b.ID == m.activeID,
		Depth:        depth,
		Children:     []*TreeNode{},
	}
}

// Walk visits every node depth-first in child order.
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	if n == nil {
		return
	}
	stack := []*TreeNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(cur)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}
