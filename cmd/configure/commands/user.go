package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/appointment-scheduler/internal/config"
	"github.com/benvon/appointment-scheduler/internal/database"
	"github.com/benvon/appointment-scheduler/internal/models"
	"github.com/benvon/appointment-scheduler/internal/validation"
	"github.com/spf13/cobra"
)

type newUser struct {
	Name  string `validate:"required,max=255"`
	Email string `validate:"required,email,max=254"`
}

// NewUserCmd creates the user command
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var in newUser
	var provider bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.TrimSpace(in.Name)
			in.Email = strings.TrimSpace(in.Email)
			if err := validation.Validate.Struct(in); err != nil {
				return fmt.Errorf("invalid user: %s", validation.Describe(err))
			}
			return withDB(func(_ *config.Config, db *database.DB) error {
				u := &models.User{Name: in.Name, Email: in.Email, Provider: provider}
				err := database.NewUserRepository(db).Create(context.Background(), u)
				if errors.Is(err, database.ErrConflict) {
					return fmt.Errorf("a user with email %s already exists", in.Email)
				}
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				cmd.Printf("Created user %d (%s)\n", u.ID, u.Email)
				return nil
			})
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Display name (required)")
	create.Flags().StringVar(&in.Email, "email", "", "Email address (required)")
	create.Flags().BoolVar(&provider, "provider", false, "Create the user as a provider")
	cmd.AddCommand(create)

	return cmd
}

// NewProviderCmd creates the provider command that flags users as bookable providers
func NewProviderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Grant or revoke provider status",
	}
	cmd.AddCommand(newProviderToggleCmd("set", "Mark a user as a provider", true))
	cmd.AddCommand(newProviderToggleCmd("unset", "Remove provider status from a user", false))
	return cmd
}

func newProviderToggleCmd(use, short string, provider bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return withDB(func(_ *config.Config, db *database.DB) error {
				err := database.NewUserRepository(db).SetProvider(context.Background(), id, provider)
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("user %d not found", id)
				}
				if err != nil {
					return fmt.Errorf("update user: %w", err)
				}
				cmd.Printf("User %d provider=%t\n", id, provider)
				return nil
			})
		},
	}
}
