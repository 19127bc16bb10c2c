package main

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/cognicore/docprep/pkg/docprep/index"
	"github.com/cognicore/docprep/pkg/docprep/ingest"
)

// inspection is what inspect prints for one index file.
type inspection struct {
	Path     string
	Shape    string
	Fields   map[string]string
	Missing  []string
	HasText  bool
	TextPath string
}

func newInspectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <index-file>...",
		Short: "Parse index files and show the normalized entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := index.NewParser(nil)
			validator, err := index.NewValidator()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				idx, err := parser.ParseFile(path)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					invalid++
					continue
				}
				entry := idx.Entry()
				doc := ingest.LoadDoc(path)
				res := inspection{
					Path:     path,
					Shape:    idx.Kind().String(),
					Fields:   entry.Map(),
					Missing:  index.Missing(entry),
					HasText:  doc.HasText,
					TextPath: doc.TextPath,
				}
				if c.noColor {
					fmt.Fprintf(out, "%+v\n", res)
				} else {
					pp.Fprintln(out, res)
				}
				if err := validator.Validate(entry); err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					invalid++
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d index files invalid", invalid, len(args))
			}
			return nil
		},
	}
}
