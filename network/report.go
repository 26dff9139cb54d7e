package network

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// ToTree renders the NAT activity of a finished run.
func (r *Report) ToTree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s: answer %d", r.Mode, r.Answer))
	tree.AddNode(fmt.Sprintf("first NAT packet x=%d y=%d", r.FirstPacket.X, r.FirstPacket.Y))
	if len(r.History) == 0 {
		return tree
	}
	resends := tree.AddBranch(fmt.Sprintf("%d NAT deliveries to address 0", len(r.History)))
	for i, d := range r.History {
		label := fmt.Sprintf("#%d x=%d y=%d", i+1, d.X, d.Y)
		if d.Repeated {
			label += " (repeated, stopped)"
		}
		resends.AddNode(label)
	}
	return tree
}
