package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"elapor/internal/service"

	"github.com/spf13/cobra"
)

func newInviteCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:     "invite",
		Short:   "Invite a new administrator",
		Example: `  elaporctl invite --email petugas@example.go.id`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd, func(ctx context.Context, s *stack) error {
				record, err := s.services.InvitationService.Invite(ctx, email)
				if errors.Is(err, service.ErrAlreadyInvited) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already an admin\n", email)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invited %s (%s)\n", record.Email, record.UserID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address to invite (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resend <user-id>",
		Short: "Resend a pending invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd, func(ctx context.Context, s *stack) error {
				record, err := s.services.InvitationService.Resend(ctx, args[0])
				var cooldownErr *service.CooldownActiveError
				if errors.As(err, &cooldownErr) {
					return fmt.Errorf("invitation was sent recently, retry in %s", cooldownErr.Remaining.Round(time.Second))
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resent invitation to %s\n", record.Email)
				return nil
			})
		},
	}
}

func newCooldownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cooldown <user-id>",
		Short: "Show the remaining resend cooldown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd, func(ctx context.Context, s *stack) error {
				remaining, err := s.services.InvitationService.Cooldown(ctx, args[0])
				if err != nil {
					return err
				}
				if remaining <= 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no cooldown")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%dms remaining\n", remaining.Milliseconds())
				return nil
			})
		},
	}
}
