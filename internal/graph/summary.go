package graph

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Summary writes a layer table to w: one row per node with its type, output
// shape, parameter count and inputs, followed by parameter totals.
func (m *Model[B]) Summary(w io.Writer) error {
	fmt.Fprintf(w, "Model: %q\n", m.name)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Layer (type)\tOutput Shape\tParam #\tConnected to")
	for _, n := range m.order {
		inputs := make([]string, len(n.inputs))
		for i, in := range n.inputs {
			inputs[i] = in.name
		}
		fmt.Fprintf(tw, "%s (%s)\t%v\t%d\t%s\n", n.name, n.TypeName(), n.shape, n.NumParameters(), strings.Join(inputs, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	total, trainable := m.NumParameters()
	_, err := fmt.Fprintf(w, "Total params: %d\nTrainable params: %d\nNon-trainable params: %d\n",
		total, trainable, total-trainable)
	return err
}
