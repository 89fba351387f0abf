package presenter

import (
	"fmt"
	"io"
	"strings"
)

// RenderText writes view as plain text, one "Label: Value" line per field.
func RenderText(w io.Writer, view PropertyView) error {
	if !view.HasData {
		_, err := fmt.Fprintln(w, NoDataMessage)
		return err
	}

	var b strings.Builder
	b.WriteString(Title + "\n")
	b.WriteString(strings.Repeat("=", len(Title)) + "\n")

	if view.Description != "" {
		writeHeading(&b, "Description")
		b.WriteString(view.Description + "\n")
	}

	for _, group := range view.Groups {
		writeHeading(&b, group.Label)
		for _, field := range group.Fields {
			fmt.Fprintf(&b, "%s: %s\n", field.Label, field.Value)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeading(b *strings.Builder, heading string) {
	b.WriteString("\n" + heading + "\n")
	b.WriteString(strings.Repeat("-", len(heading)) + "\n")
}
