package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"cf_finder/internal/app/service"
	"cf_finder/internal/domain/model"
)

func (a *app) renderFinder(v *service.FinderView) error {
	if a.jsonOutput {
		return json.NewEncoder(a.out).Encode(v)
	}
	if v.Profile != nil {
		fmt.Fprintf(a.out, "Target: %s\n", v.Profile.DisplayName())
	}
	fmt.Fprintf(a.out, "%d problem(s)\n\n", v.Total)

	if v.Buckets != nil {
		for _, b := range v.Buckets {
			fmt.Fprintf(a.out, "== %s (%d)\n", b.Key, len(b.Problems))
			if err := writeProblems(a.out, b.Problems); err != nil {
				return err
			}
			fmt.Fprintln(a.out)
		}
		return nil
	}
	return writeProblems(a.out, v.Problems)
}

func (a *app) renderRevision(v *service.RevisionView) error {
	if a.jsonOutput {
		return json.NewEncoder(a.out).Encode(v)
	}
	fmt.Fprintf(a.out, "%s: %d problem(s) to revise\n\n", v.Handle, v.Total)

	if v.Buckets != nil {
		for _, b := range v.Buckets {
			fmt.Fprintf(a.out, "== %s (%d)\n", b.Key, len(b.Problems))
			if err := writeEntries(a.out, b.Problems); err != nil {
				return err
			}
			fmt.Fprintln(a.out)
		}
		return nil
	}
	return writeEntries(a.out, v.Entries)
}

func writeProblems(out io.Writer, problems []model.SolvedProblem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tNAME\tRATING\tSOLVED\tTAGS\tURL")
	for _, p := range problems {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Rating, p.SolveTime.Local().Format("2006-01-02"),
			strings.Join(p.Tags, ","), p.URL())
	}
	return w.Flush()
}

func writeEntries(out io.Writer, entries []model.RevisionEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tNAME\tRATING\tDAYS\tTAGS\tURL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ID, e.Name, e.Rating, e.DaysSinceSolve,
			strings.Join(e.Tags, ","), e.URL())
	}
	return w.Flush()
}

// reportFailures folds every per-handle failure into one error message.
func (a *app) reportFailures(err error) error {
	failures := service.FailureDetails(err)
	if len(failures) <= 1 {
		return err
	}
	var b strings.Builder
	b.WriteString("error fetching data for one or more users:")
	for _, f := range failures {
		kind := "judge"
		if f.Network {
			kind = "network"
		}
		fmt.Fprintf(&b, "\n  %s (%s): %s", f.Handle, kind, f.Comment)
	}
	return &failureReport{msg: b.String(), err: err}
}

type failureReport struct {
	msg string
	err error
}

func (r *failureReport) Error() string { return r.msg }
func (r *failureReport) Unwrap() error { return r.err }
