package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"elapor/internal/model"
	"elapor/internal/repository"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newAdminsCmd() *cobra.Command {
	var (
		query  string
		status string
		page   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "admins",
		Short: "List administrators",
		Example: `  elaporctl admins
  elaporctl admins --status pending --query budi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				page = 1
			}
			return withStack(cmd, func(ctx context.Context, s *stack) error {
				admins, total, err := s.repos.AdminRepo.Search(ctx, repository.AdminSearch{
					Query:  query,
					Status: model.ParseAdminStatus(status),
					Offset: (page - 1) * limit,
					Limit:  limit,
				})
				if err != nil {
					return err
				}
				cooldowns := make(map[string]int64, len(admins))
				for _, a := range admins {
					if a.IsVerified {
						continue
					}
					remaining, err := s.services.InvitationService.Cooldown(ctx, a.UserID)
					if err != nil {
						return err
					}
					cooldowns[a.UserID] = remaining.Milliseconds()
				}
				printAdmins(cmd.OutOrStdout(), admins, cooldowns)
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d admins\n", len(admins), total)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by display name or email")
	cmd.Flags().StringVar(&status, "status", "all", "all, verified or pending")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Rows per page")
	return cmd
}

func printAdmins(w io.Writer, admins []model.AdminRecord, cooldowns map[string]int64) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"User ID", "Email", "Name", "Verified", "Super Admin", "Cooldown"})
	table.SetBorder(false)
	table.SetColumnSeparator("|")

	for _, a := range admins {
		cd := "-"
		if ms, ok := cooldowns[a.UserID]; ok && ms > 0 {
			cd = strconv.FormatInt((ms+999)/1000, 10) + "s"
		}
		table.Append([]string{
			a.UserID,
			a.Email,
			a.DisplayName,
			strconv.FormatBool(a.IsVerified),
			strconv.FormatBool(a.IsSuperAdmin),
			cd,
		})
	}
	table.Render()
}
