package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"variantshare/internal/api"
	"variantshare/internal/userdb"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the user directory used for recipient lookup",
	}
	usersCmd.AddCommand(newUsersListCommand(ctx))
	usersCmd.AddCommand(newUsersAddCommand(ctx))
	usersCmd.AddCommand(newUsersGetCommand(ctx))
	usersCmd.AddCommand(newUsersRemoveCommand(ctx))
	return usersCmd
}

func (c *commandContext) withUserStore(fn func(*userdb.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := userdb.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newUsersListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withUserStore(func(store *userdb.Store) error {
				users, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					dtos := make([]api.User, 0, len(users))
					for i := range users {
						dtos = append(dtos, api.FromUser(&users[i]))
					}
					return writeJSON(cmd, dtos)
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users")
					return nil
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Email, u.Name, u.Department})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Email", "Name", "Department"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print users as JSON")
	return cmd
}

func newUsersAddCommand(ctx *commandContext) *cobra.Command {
	var name, department string
	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Add or update a directory user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withUserStore(func(store *userdb.Store) error {
				user, err := store.Upsert(cmd.Context(), userdb.User{Email: args[0], Name: name, Department: department})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved user %s (id %d)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&department, "department", "", "Department")
	return cmd
}

func newUsersGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <email>",
		Short: "Look up a user by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withUserStore(func(store *userdb.Store) error {
				user, err := store.FindByEmail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if user == nil {
					return fmt.Errorf("user %s not found", args[0])
				}
				return writeJSON(cmd, api.UserResponse{Data: api.FromUser(user)})
			})
		},
	}
}

func newUsersRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <email>",
		Aliases: []string{"rm"},
		Short:   "Remove a directory user",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withUserStore(func(store *userdb.Store) error {
				removed, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return errors.New("no user removed")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}
