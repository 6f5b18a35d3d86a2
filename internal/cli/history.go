package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cf_finder/internal/app/service"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var clearAll bool
	var deleteID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, delete or clear saved finder queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *service.FinderService) error {
				switch {
				case clearAll:
					if err := svc.ClearHistory(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(a.out, "History cleared.")
					return nil
				case deleteID != "":
					if err := svc.DeleteHistory(cmd.Context(), deleteID); err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Deleted %s.\n", deleteID)
					return nil
				}

				queries, err := svc.History(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return json.NewEncoder(a.out).Encode(queries)
				}
				if len(queries) == 0 {
					fmt.Fprintln(a.out, "No saved queries.")
					return nil
				}
				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSAVED\tTARGETS\tPRACTICES")
				for _, q := range queries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						q.ID, q.Timestamp.Local().Format("2006-01-02 15:04"),
						strings.Join(q.Targets, ","), strings.Join(q.Practices, ","))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every saved query")
	cmd.Flags().StringVar(&deleteID, "delete", "", "delete the saved query with this ID")
	return cmd
}
