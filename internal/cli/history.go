package cli

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/urbanbyte/ishare/internal/history"
	"github.com/urbanbyte/ishare/internal/util"
)

func historyCmd() *cobra.Command {
	var limit string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Lista os uploads mais recentes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			entries, err := res.History.List(cmd.Context(), util.ParseLimit(limit, 20, history.MaxEntries))
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Quando", "Host", "Arquivo", "Resultado", "ms"})
			for _, e := range entries {
				result := e.Link
				if !e.OK() {
					result = "erro: " + e.Error
				}
				t.AppendRow(table.Row{e.At.Local().Format(time.DateTime), e.Host, e.Path, result, strconv.FormatInt(e.DurationMs, 10)})
			}
			t.AppendFooter(table.Row{"", "", "", "total", len(entries)})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&limit, "limit", "n", "20", "quantidade de entradas")
	return cmd
}
