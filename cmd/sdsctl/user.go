package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/straye-as/sds-catalog-api/internal/domain"
)

func userCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	command.AddCommand(userCreateCmd(), userSetRoleCmd())
	return command
}

func userCreateCmd() *cobra.Command {
	var email, naam, password, role string

	command := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			userRole, err := parseRole(role)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.authService().CreateUser(cmd.Context(), email, password, naam, userRole)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}

	command.Flags().StringVarP(&email, "email", "e", "", "Email address (required)")
	command.Flags().StringVarP(&naam, "naam", "n", "", "Display name")
	command.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	command.Flags().StringVar(&role, "role", string(domain.RoleViewer), "Role: admin or viewer")
	_ = command.MarkFlagRequired("email")
	_ = command.MarkFlagRequired("password")

	return command
}

func userSetRoleCmd() *cobra.Command {
	var email, role string

	command := &cobra.Command{
		Use:   "set-role",
		Short: "Change the role of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			userRole, err := parseRole(role)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.authService().SetRole(cmd.Context(), email, userRole); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, userRole)
			return nil
		},
	}

	command.Flags().StringVarP(&email, "email", "e", "", "Email address (required)")
	command.Flags().StringVar(&role, "role", "", "Role: admin or viewer (required)")
	_ = command.MarkFlagRequired("email")
	_ = command.MarkFlagRequired("role")

	return command
}

func parseRole(value string) (domain.UserRole, error) {
	role := domain.UserRole(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q, expected admin or viewer", value)
	}
	return role, nil
}
