package main

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

func newConnectionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Manage saved connections",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved connections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return oneShot(cmd, opts, func(ctx context.Context, a *app) error {
					recs, err := a.services.Connections.List(ctx)
					if err != nil {
						return err
					}
					printConnections(recs)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "import <file.yaml>",
			Short: "Import connections from a YAML file, resolving each password source",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return oneShot(cmd, opts, func(ctx context.Context, a *app) error {
					recs, err := a.services.Connections.Import(ctx, args[0])
					if err != nil {
						return err
					}
					pterm.Success.Printfln("imported %d connection(s)", len(recs))
					printConnections(recs)
					return nil
				})
			},
		},
	)
	return cmd
}

func printConnections(recs []model.ConnectionRecord) {
	if len(recs) == 0 {
		pterm.Info.Println("no saved connections")
		return
	}
	data := pterm.TableData{{"ID", "Name", "Host", "Port", "Database", "User", "SSL"}}
	for _, r := range recs {
		data = append(data, []string{r.ID, r.Name, r.Host, strconv.Itoa(r.Port), r.Database, r.User, string(r.SSLMode)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
