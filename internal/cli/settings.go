package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/urbanbyte/ishare/internal/settings"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"config"},
		Short:   "Consulta e altera as preferências",
	}
	cmd.AddCommand(
		settingsListCmd(),
		settingsGetCmd(),
		settingsSetCmd(),
		settingsResetCmd(),
		settingsExportCmd(),
		settingsImportCmd(),
	)
	return cmd
}

func settingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista todas as chaves com valor efetivo e default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Chave", "Valor", "Default", "Tipo", "Alterada"})
			for _, entry := range res.Settings.All() {
				overridden := ""
				if entry.Overridden {
					overridden = "*"
				}
				t.AppendRow(table.Row{entry.Key, entry.Value, entry.Default, entry.Kind, overridden})
			}
			t.SetCaption("fonte: %s", res.SettingsLocation)
			t.Render()
			return nil
		},
	}
}

func settingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <chave>",
		Short: "Mostra o valor efetivo de uma chave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := settings.ParseKey(args[0])
			if err != nil {
				return err
			}
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			value, err := res.Settings.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func settingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <chave> <valor>",
		Short: "Grava uma chave (o valor é validado pelo tipo)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := settings.ParseKey(args[0])
			if err != nil {
				return err
			}
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			if err := res.Settings.Set(cmd.Context(), key, args[1]); err != nil {
				return err
			}
			value, _ := res.Settings.Get(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, value)
			return nil
		},
	}
}

func settingsResetCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset [chave]",
		Short: "Restaura o default de uma chave ou de todas (--all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("informe uma chave ou --all")
			}
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			if all {
				if err := res.Settings.ResetAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "todas as chaves restauradas")
				return nil
			}

			key, err := settings.ParseKey(args[0])
			if err != nil {
				return err
			}
			if err := res.Settings.ResetToDefault(cmd.Context(), key); err != nil {
				return err
			}
			value, _ := res.Settings.Get(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "restaura todas as chaves")
	return cmd
}

func settingsExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta as preferências em json ou yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			data, err := res.Settings.Export(format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(output, data, 0o600)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", settings.FormatJSON, "json ou yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "arquivo de saída (stdout quando vazio)")
	return cmd
}

func settingsImportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <arquivo>",
		Short: "Importa preferências de um arquivo json ou yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			n, err := res.Settings.Import(cmd.Context(), data, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.Itoa(n)+" chaves importadas")
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", settings.FormatJSON, "json ou yaml")
	return cmd
}
