package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/guac-console/internal/application"
	"github.com/bnema/guac-console/internal/domain"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage connection profiles",
	}

	cmd.AddCommand(
		newProfileAddCmd(app),
		newProfileListCmd(app),
		newProfileRemoveCmd(app),
	)

	return cmd
}

func newProfileAddCmd(app *app) *cobra.Command {
	var baseURL string
	var dataSource string
	var username string
	var name string

	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Add or update a connection profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := app.profiles.AddProfile(cmd.Context(), application.AddProfileCommand{
				ID:         domain.ProfileID(args[0]),
				Name:       name,
				BaseURL:    baseURL,
				DataSource: dataSource,
				Username:   username,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s (%s)\n", profile.ID, profile.BaseURL)
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "Base URL of the deployment, e.g. https://lab.example.com/guacamole")
	cmd.Flags().StringVar(&dataSource, "data-source", "", "Data source to authenticate against (default: chosen by the server)")
	cmd.Flags().StringVar(&username, "username", "", "Username used by login")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: the profile ID)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

type profileView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	BaseURL    string     `json:"base_url"`
	DataSource string     `json:"data_source,omitempty"`
	Username   string     `json:"username,omitempty"`
	LoggedIn   bool       `json:"logged_in"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
}

func newProfileListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connection profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := app.profiles.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				views := make([]profileView, 0, len(statuses))
				for _, status := range statuses {
					views = append(views, toProfileView(status))
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(views)
			}

			if len(statuses) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured. Add one with `guacc profile add ID --url URL`.")
				return err
			}
			for _, status := range statuses {
				state := "logged out"
				if status.LoggedIn {
					state = "logged in as " + status.Session.Username
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", status.Profile.ID, status.Profile.Name, status.Profile.BaseURL, state)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func toProfileView(status application.ProfileStatus) profileView {
	view := profileView{
		ID:         string(status.Profile.ID),
		Name:       status.Profile.Name,
		BaseURL:    status.Profile.BaseURL,
		DataSource: status.Profile.DataSource,
		Username:   status.Profile.Username,
		LoggedIn:   status.LoggedIn,
	}
	if status.LoggedIn && !status.Session.IssuedAt.IsZero() {
		issuedAt := status.Session.IssuedAt.UTC()
		view.IssuedAt = &issuedAt
	}
	return view
}

func newProfileRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a connection profile and its stored secrets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ProfileID(args[0])
			if err := app.profiles.RemoveProfile(cmd.Context(), id); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s\n", id)
			return err
		},
	}
}
