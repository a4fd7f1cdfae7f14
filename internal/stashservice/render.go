package stashservice

import (
	"fmt"
	"io"
	"strings"
)

// RenderTree writes t as an indented text tree. Folders holding locked files
// are marked with "[locked]" and collapsed folders with "+".
func RenderTree(w io.Writer, t Tree) error {
	if _, err := fmt.Fprintf(w, "/ (%d files)\n", t.RootFiles); err != nil {
		return err
	}
	return renderNodes(w, t.Folders, "")
}

func renderNodes(w io.Writer, nodes []TreeNode, prefix string) error {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}

		var b strings.Builder
		b.WriteString(prefix)
		b.WriteString(branch)
		if !n.Folder.IsOpen {
			b.WriteString("+ ")
		}
		b.WriteString(n.Folder.Name)
		fmt.Fprintf(&b, " (%d files)", n.FileCount)
		if n.Folder.HasLockedFiles {
			b.WriteString(" [locked]")
		}
		b.WriteByte('\n')

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := renderNodes(w, n.Children, prefix+next); err != nil {
			return err
		}
	}
	return nil
}
