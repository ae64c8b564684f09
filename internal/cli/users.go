// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user and credential records",
	Long: `Commands for inspecting and maintaining the user records stored
by a go-passkey server. These commands operate directly on the
storage backend; point them at the same config the server uses.`,
}

// usersListCmd lists all users
var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user records",
	Long:  `List all user records and their registered credential counts.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		repo, backend, err := openRepository(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = backend.Close() }()

		users, err := repo.ListUsers(context.Background())
		if err != nil {
			handleError(fmt.Errorf("failed to list users: %w", err))
			return
		}

		if err := printer.PrintUserList(users); err != nil {
			handleError(err)
		}
	},
}

// usersGetCmd gets details for a specific user
var usersGetCmd = &cobra.Command{
	Use:   "get <username>",
	Short: "Get user details",
	Long:  `Show a user record with all of its registered credentials.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		repo, backend, err := openRepository(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = backend.Close() }()

		u, err := repo.GetUser(context.Background(), username)
		if err != nil {
			if passkey.IsUserNotFound(err) {
				handleError(fmt.Errorf("user %s not found", username))
				return
			}
			handleError(fmt.Errorf("failed to get user: %w", err))
			return
		}

		if err := printer.PrintUserDetails(u); err != nil {
			handleError(err)
		}
	},
}

// usersDeleteCmd deletes a user record
var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user record",
	Long: `Delete a user record and all of its registered credentials.

The user will need to register again before they can sign in.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		repo, backend, err := openRepository(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = backend.Close() }()

		ctx := context.Background()
		if _, err := repo.GetUser(ctx, username); err != nil {
			if passkey.IsUserNotFound(err) {
				handleError(fmt.Errorf("user %s not found", username))
				return
			}
			handleError(fmt.Errorf("failed to find user: %w", err))
			return
		}

		if err := repo.DeleteUser(ctx, username); err != nil {
			handleError(fmt.Errorf("failed to delete user: %w", err))
			return
		}

		if cfg.OutputFormat == "json" {
			if err := printer.PrintJSON(map[string]interface{}{
				"success":  true,
				"message":  fmt.Sprintf("User '%s' deleted successfully", username),
				"username": username,
			}); err != nil {
				handleError(err)
			}
		} else {
			fmt.Printf("User '%s' deleted successfully.\n", username)
		}
	},
}

// resolveCmd resolves a credential ID to its owner
var resolveCmd = &cobra.Command{
	Use:   "resolve <credential-id>",
	Short: "Resolve a credential ID to its owning user",
	Long: `Look up which user a base64url-encoded credential ID belongs to.

Example:
  passkey resolve dGVzdC1jcmVkZW50aWFs`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		credentialID := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		repo, backend, err := openRepository(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = backend.Close() }()

		user, cred, err := repo.FindByCredentialID(context.Background(), credentialID)
		if err != nil {
			if passkey.IsCredentialNotRegistered(err) {
				handleError(fmt.Errorf("credential %s is not registered", credentialID))
				return
			}
			handleError(fmt.Errorf("failed to resolve credential: %w", err))
			return
		}

		if cfg.OutputFormat == "json" {
			if err := printer.PrintJSON(map[string]interface{}{
				"username":      user.Username,
				"user_id":       user.ID,
				"credential_id": cred.ID,
				"sign_count":    cred.SignCount,
			}); err != nil {
				handleError(err)
			}
		} else {
			fmt.Printf("Credential %s belongs to %s\n", cred.ID, user.Username)
		}
	},
}

func init() {
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersGetCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}
