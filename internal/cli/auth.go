package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/urbanbyte/ishare/internal/auth"
	"github.com/urbanbyte/ishare/internal/bootstrap"
	"github.com/urbanbyte/ishare/internal/config"
	"github.com/urbanbyte/ishare/internal/service"
	"github.com/urbanbyte/ishare/internal/util"
)

func hashpassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hashpass <senha>",
		Short: "Gera o hash argon2id para ADMIN_PASSWORD_HASH ou OPERATOR_PASSWORD_HASH (custo em ARGON2_*)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.ValidatePassword(args[0]); err != nil {
				return err
			}
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			hasher, err := bootstrap.PasswordHasher(cfg)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		role    string
		subject string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite um access token local assinado com JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var cred service.Credential
			switch strings.ToLower(role) {
			case "owner":
				cred = service.OwnerCredential("")
			case "operator":
				cred = service.OperatorCredential("")
			default:
				return errors.New("role deve ser owner ou operator")
			}
			if subject == "" {
				subject = cred.Subject
			}

			manager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
			token, _, err := manager.GenerateAccessToken(subject, cred.Roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", "operator", "owner ou operator")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "subject do token (padrão: owner ou operator)")
	return cmd
}

