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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintUserList prints a list of user records
func (p *Printer) PrintUserList(users []*passkey.UserRecord) error {
	switch p.format {
	case OutputFormatJSON:
		userList := make([]map[string]interface{}, len(users))
		for i, u := range users {
			userList[i] = map[string]interface{}{
				"id":               u.ID,
				"username":         u.Username,
				"credential_count": len(u.Credentials),
			}
		}
		return p.printJSON(map[string]interface{}{
			"users": userList,
			"total": len(userList),
		})
	case OutputFormatTable:
		if len(users) == 0 {
			fmt.Fprintln(p.writer, "No users found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-38s %-24s %-5s\n", "ID", "USERNAME", "CREDS")
		fmt.Fprintln(p.writer, strings.Repeat("-", 70))
		for _, u := range users {
			fmt.Fprintf(p.writer, "%-38s %-24s %-5d\n",
				u.ID, truncateString(u.Username, 24), len(u.Credentials))
		}
		fmt.Fprintf(p.writer, "\nTotal: %d user(s)\n", len(users))
		return nil
	case OutputFormatText:
		if len(users) == 0 {
			fmt.Fprintln(p.writer, "No users found")
			return nil
		}
		for _, u := range users {
			fmt.Fprintf(p.writer, "%s (%d credential(s))\n", u.Username, len(u.Credentials))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintUserDetails prints a single user record with its credentials
func (p *Printer) PrintUserDetails(u *passkey.UserRecord) error {
	switch p.format {
	case OutputFormatJSON:
		creds := make([]map[string]interface{}, len(u.Credentials))
		for i, c := range u.Credentials {
			creds[i] = map[string]interface{}{
				"id":          c.ID,
				"device_type": string(c.DeviceType),
				"backed_up":   c.BackedUp,
				"sign_count":  c.SignCount,
				"created_at":  c.CreatedAt.Format(time.RFC3339),
			}
			if !c.LastUsedAt.IsZero() {
				creds[i]["last_used_at"] = c.LastUsedAt.Format(time.RFC3339)
			}
		}
		return p.printJSON(map[string]interface{}{
			"id":          u.ID,
			"username":    u.Username,
			"credentials": creds,
		})
	case OutputFormatText, OutputFormatTable:
		fmt.Fprintf(p.writer, "User Details:\n")
		fmt.Fprintf(p.writer, "  ID:       %s\n", u.ID)
		fmt.Fprintf(p.writer, "  Username: %s\n", u.Username)
		fmt.Fprintf(p.writer, "\n  Credentials (%d):\n", len(u.Credentials))
		for i, c := range u.Credentials {
			fmt.Fprintf(p.writer, "    %d. %s\n", i+1, c.ID)
			fmt.Fprintf(p.writer, "       Device Type: %s\n", c.DeviceType)
			fmt.Fprintf(p.writer, "       Backed Up:   %t\n", c.BackedUp)
			fmt.Fprintf(p.writer, "       Sign Count:  %d\n", c.SignCount)
			fmt.Fprintf(p.writer, "       Created:     %s\n", c.CreatedAt.Format(time.RFC3339))
			if !c.LastUsedAt.IsZero() {
				fmt.Fprintf(p.writer, "       Last Used:   %s\n", c.LastUsedAt.Format(time.RFC3339))
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintMessage prints an informational message
func (p *Printer) PrintMessage(msg string) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(map[string]interface{}{"message": msg})
	}
	_, err := fmt.Fprintln(p.writer, msg)
	return err
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(msg string) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(map[string]interface{}{
			"success": true,
			"message": msg,
		})
	}
	_, err := fmt.Fprintln(p.writer, msg)
	return err
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	}
	_, werr := fmt.Fprintf(p.writer, "Error: %s\n", err.Error())
	return werr
}

// PrintJSON prints arbitrary data as indented JSON regardless of format
func (p *Printer) PrintJSON(data interface{}) error {
	return p.printJSON(data)
}

func (p *Printer) printJSON(data interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
