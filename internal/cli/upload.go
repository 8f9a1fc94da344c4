package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/urbanbyte/ishare/internal/bootstrap"
	"github.com/urbanbyte/ishare/internal/capture"
	"github.com/urbanbyte/ishare/internal/clipboard"
	"github.com/urbanbyte/ishare/internal/config"
	"github.com/urbanbyte/ishare/internal/upload"
)

// errUploadFailed sinaliza saída não zero; o detalhe já foi impresso.
var errUploadFailed = errors.New("upload falhou")

func uploadCmd() *cobra.Command {
	var noClipboard bool

	cmd := &cobra.Command{
		Use:   "upload <arquivo>",
		Short: "Envia um arquivo ao host configurado (uploadType) e copia o link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := capture.NewArtifact(args[0])
			if err != nil {
				return err
			}
			return runUpload(cmd, artifact.Path, noClipboard)
		},
	}

	cmd.Flags().BoolVar(&noClipboard, "no-clipboard", false, "não copia o link para a área de transferência")
	return cmd
}

func captureCmd() *cobra.Command {
	var (
		mode     string
		doUpload bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Captura a tela (screen, window ou region) com o binário configurado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := capture.ParseMode(mode)
			if err != nil {
				return err
			}
			_, res, err := openLocal(cmd.Context())
			if err != nil {
				return err
			}
			runner := capture.NewRunner(res.Settings, log.Logger)
			path, err := runner.Capture(cmd.Context(), m)
			res.Close()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if !doUpload {
				return nil
			}
			return runUpload(cmd, path, false)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(capture.ModeScreen), "screen, window ou region")
	cmd.Flags().BoolVarP(&doUpload, "upload", "u", false, "envia a captura em seguida")
	return cmd
}

func runUpload(cmd *cobra.Command, path string, noClipboard bool) error {
	cfg, res, err := openLocal(cmd.Context())
	if err != nil {
		return err
	}
	defer res.Close()

	client, closeClient, err := newUploadClient(cfg, res, noClipboard)
	if err != nil {
		return err
	}
	defer closeClient()

	result := client.UploadWait(cmd.Context(), path)
	if !result.OK() {
		fmt.Fprintf(cmd.ErrOrStderr(), "falha (%s): %v\n", result.Host, result.Err)
		return errUploadFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Link)
	return nil
}

func newUploadClient(cfg *config.Config, res *bootstrap.Resources, noClipboard bool) (*upload.Client, func(), error) {
	hosts, err := bootstrap.Hosts(cfg, res.Settings)
	if err != nil {
		return nil, nil, err
	}

	var writer clipboard.Writer = clipboard.SystemWriter{}
	if noClipboard || !clipboard.Available() {
		writer = &clipboard.MemoryWriter{}
	}
	sink := clipboard.NewSink(writer, log.Logger)

	client := upload.NewClient(res.Settings, upload.ClientOptions{
		Hosts:     hosts,
		Clipboard: sink,
		History:   res.History,
		Notifier:  bootstrap.Notifier(cfg, log.Logger),
	}, log.Logger)
	return client, sink.Close, nil
}
