package main

import (
	"fmt"

	"github.com/fwojciec/pagecap"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	if c.Delete != "" {
		if err := deps.Runs.DeleteRun(deps.Ctx, c.Delete); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Deleted run %q\n", c.Delete)
		return nil
	}

	runs, total, err := deps.Runs.FindRuns(deps.Ctx, pagecap.RunFilter{Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No saved runs. Use 'pagecap capture' to create one.")
		return nil
	}

	for _, r := range runs {
		ocr := ""
		if r.OCR {
			ocr = "  ocr"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %3d pages  %8s%s  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Pages,
			pagecap.FormatBytes(r.ByteSize), ocr, r.Path)
	}

	if total > len(runs) {
		fmt.Fprintf(deps.Stdout, "Showing %d of %d runs.\n", len(runs), total)
	}
	return nil
}
