package cli

import (
	"github.com/spf13/cobra"

	"cf_finder/internal/app/service"
)

func (a *app) newReviseCmd() *cobra.Command {
	var (
		minRating int
		maxRating int
		view      viewFlags
	)

	cmd := &cobra.Command{
		Use:   "revise HANDLE",
		Short: "List a user's solved problems, least recently solved first",
		Example: `  cffinder revise me
  cffinder revise me --min 1400 --max 1900 --group-by tag`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := view.options()
			if err != nil {
				return err
			}
			req := service.ReviseRequest{SessionID: cliSession, Handle: args[0]}
			if cmd.Flags().Changed("min") {
				req.MinRating = &minRating
			}
			if cmd.Flags().Changed("max") {
				req.MaxRating = &maxRating
			}
			return a.withService(cmd.Context(), func(svc *service.FinderService) error {
				resp, err := svc.Revise(cmd.Context(), req)
				if err != nil {
					return a.reportFailures(err)
				}
				return a.renderRevision(service.BuildRevisionView(resp.Result, opts))
			})
		},
	}

	cmd.Flags().IntVar(&minRating, "min", 0, "lowest rating to include")
	cmd.Flags().IntVar(&maxRating, "max", 0, "highest rating to include")
	cmd.Flags().StringSliceVar(&view.tags, "tags", nil, "only show problems with these tags (comma-separated)")
	cmd.Flags().StringVar(&view.tagMode, "tag-mode", "any", "tag match mode: any or all")
	cmd.Flags().StringVar(&view.groupBy, "group-by", "", "group output by rating or tag")
	return cmd
}
