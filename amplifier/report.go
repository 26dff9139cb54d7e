package amplifier

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// ToTree renders the winning chain, one branch per amplifier.
func (b *Best) ToTree(mode Mode) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s chain, signal %d (%d orderings tried)", mode, b.Signal, b.Tried))
	for k, phase := range b.Phases {
		next := k + 1
		if next == len(b.Phases) {
			if mode != Feedback {
				tree.AddBranch(fmt.Sprintf("amp-%d phase=%d -> thrusters", k, phase))
				continue
			}
			next = 0
		}
		tree.AddBranch(fmt.Sprintf("amp-%d phase=%d -> amp-%d", k, phase, next))
	}
	return tree
}
