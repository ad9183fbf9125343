// Command morph inspects declarative mapping profiles without loading any
// Go types: it lints the profile structure and summarizes what each mapping
// declares.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"morph/profile"
)

var dumpFlag bool

func main() {
	root := &cobra.Command{
		Use:   "morph",
		Short: "Inspect object-mapping profiles",
	}

	lint := &cobra.Command{
		Use:   "lint <profile.yaml>...",
		Short: "Check mapping profiles for structural problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			failed := false

			for _, path := range args {
				if err := lintProfile(path); err != nil {
					failed = true

					color.Red("%s: %v", path, err)
				}
			}

			if failed {
				return fmt.Errorf("lint failed")
			}

			return nil
		},
	}
	lint.Flags().BoolVar(&dumpFlag, "dump", false, "dump the parsed profile structure")

	root.AddCommand(lint)
	root.SilenceUsage = true

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func lintProfile(path string) error {
	f, err := profile.LoadFile(path)
	if err != nil {
		return err
	}

	if dumpFlag {
		spew.Dump(f)
	}

	summarize(f)

	errs := f.Lint()
	for _, e := range errs {
		color.Red("  %v", e)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d problem(s)", len(errs))
	}

	color.Green("%s: ok", path)

	return nil
}

func summarize(f *profile.File) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Source", "Target", "Fields", "Ignored", "Reverse"})

	for _, tm := range f.Mappings {
		table.Append([]string{
			tm.Source,
			tm.Target,
			strconv.Itoa(len(tm.Fields)),
			strconv.Itoa(len(tm.Ignore)),
			strconv.FormatBool(tm.Reverse),
		})
	}

	table.Render()
}
