package cli

import (
	"github.com/spf13/cobra"

	"cf_finder/internal/app/engine"
	"cf_finder/internal/app/service"
)

type viewFlags struct {
	tags    []string
	tagMode string
	sort    string
	groupBy string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.tags, "tags", nil, "only show problems with these tags (comma-separated)")
	cmd.Flags().StringVar(&f.tagMode, "tag-mode", "any", "tag match mode: any or all")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort order: most_recent, oldest, contest_desc, contest_asc, name_asc, name_desc")
	cmd.Flags().StringVar(&f.groupBy, "group-by", "", "group output by rating or tag")
}

func (f *viewFlags) options() (service.ViewOptions, error) {
	opts := service.ViewOptions{Tags: f.tags}
	var err error
	if opts.TagMode, err = engine.ParseTagMode(f.tagMode); err != nil {
		return opts, err
	}
	if opts.SortKey, err = engine.ParseSortKey(f.sort); err != nil {
		return opts, err
	}
	if f.groupBy != "" {
		if opts.GroupBy, err = engine.ParseGroupKey(f.groupBy); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (a *app) newFindCmd() *cobra.Command {
	var (
		targets   []string
		practices []string
		policy    string
		view      viewFlags
	)

	cmd := &cobra.Command{
		Use:   "find --target HANDLE [--practice HANDLE]...",
		Short: "List problems solved by targets but by none of the practice users",
		Example: `  cffinder find --target tourist --practice me
  cffinder find --target tourist,Petr --practice me --group-by rating
  cffinder find --target tourist --tags dp,greedy --tag-mode all --sort oldest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := view.options()
			if err != nil {
				return err
			}
			return a.withService(cmd.Context(), func(svc *service.FinderService) error {
				resp, err := svc.Find(cmd.Context(), service.FindRequest{
					SessionID: cliSession,
					Targets:   targets,
					Practices: practices,
					Policy:    policy,
				})
				if err != nil {
					return a.reportFailures(err)
				}
				return a.renderFinder(service.BuildFinderView(resp.Result, opts))
			})
		},
	}

	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "handles whose solved problems are candidates (repeatable)")
	cmd.Flags().StringSliceVarP(&practices, "practice", "p", nil, "handles whose solved problems are excluded (repeatable)")
	cmd.Flags().StringVar(&policy, "policy", "", "which accepted submission represents a problem: earliest or most_recent")
	view.register(cmd)
	return cmd
}
