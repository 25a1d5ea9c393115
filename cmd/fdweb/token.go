// AngelaMos | 2026
// token.go

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with bearer credentials",
	}
	cmd.AddCommand(newTokenInspectCmd(time.Now))
	return cmd
}

func newTokenInspectCmd(now func() time.Time) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decode a credential without verifying it",
		Long: "Decode a credential the way the front-end does before every request.\n" +
			"The signature is not checked; the gateway remains the authority.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := auth.NewDecoder().Decode(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return printIdentity(cmd.OutOrStdout(), id, now())
		},
	}
}

func printIdentity(out io.Writer, id *auth.Identity, now time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	role := string(id.Role)
	switch {
	case role == "":
		role = "(none)"
	case !id.Role.Known():
		role += " (unrecognised)"
	}

	expires := "never"
	state := "valid"
	if id.ExpiresAt != nil {
		expires = id.ExpiresAt.UTC().Format(time.RFC3339)
		if id.Expired(now) {
			state = "expired"
		}
	}

	route, guarded := guard.LandingFor(id.Role)
	if !guarded {
		route = guard.LandingAfterLogin(id.Role) + " (no role guard)"
	}

	rows := [][2]string{
		{"subject", id.Username},
		{"user id", fmt.Sprint(id.ID)},
		{"role", role},
		{"name", id.DisplayName},
		{"email", id.Email},
		{"phone", id.Phone},
		{"expires", expires},
		{"state", state},
		{"landing", route},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
