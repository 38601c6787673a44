package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bnema/guac-console/internal/adapters/auth"
	"github.com/bnema/guac-console/internal/domain"
	"github.com/spf13/cobra"
)

func newPoolImageCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "poolimage",
		Aliases: []string{"image"},
		Short:   "Read or replace the pool image of the current user",
	}

	cmd.AddCommand(
		newPoolImageGetCmd(app),
		newPoolImageUploadCmd(app),
	)

	return cmd
}

type poolImageView struct {
	ContentType string            `json:"content_type"`
	Bytes       int               `json:"bytes"`
	Identifier  string            `json:"identifier,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	LastActive  *time.Time        `json:"last_active,omitempty"`
}

func newPoolImageGetCmd(app *app) *cobra.Command {
	var dataSource string
	var outputPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch the pool image",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.resolveProfile(cmd)
			if err != nil {
				return err
			}
			service, provider, err := app.poolImageService(profile)
			if err != nil {
				return err
			}

			var image domain.PoolImage
			fetch := func(ctx context.Context) error {
				source, identity, err := sessionIdentity(ctx, provider, profile, dataSource)
				if err != nil {
					return err
				}
				image, err = service.GetPoolImage(ctx, source, identity)
				return err
			}
			if asJSON {
				err = fetch(cmd.Context())
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching pool image...", fetch)
			}
			if err != nil {
				return userError(profile, err)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, image.Data, 0o644); err != nil {
					return fmt.Errorf("write pool image: %w", err)
				}
				if !asJSON {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(image.Data), outputPath)
					return err
				}
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(toPoolImageView(image))
			}
			return writePoolImage(cmd.OutOrStdout(), image)
		},
	}

	cmd.Flags().StringVar(&dataSource, "data-source", "", "Data source of the image (default: the session's data source)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the raw image to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newPoolImageUploadCmd(app *app) *cobra.Command {
	var contentType string
	var verify bool

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Replace the pool image with FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := app.resolveProfile(cmd)
			if err != nil {
				return err
			}
			file, err := readUploadFile(args[0], contentType)
			if err != nil {
				return err
			}
			service, provider, err := app.poolImageService(profile)
			if err != nil {
				return err
			}

			var image domain.PoolImage
			err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Uploading pool image...", func(ctx context.Context) error {
				source, identity, err := sessionIdentity(ctx, provider, profile, "")
				if err != nil {
					return err
				}
				if err := service.UploadPoolImage(ctx, file, identity); err != nil {
					return err
				}
				if !verify {
					return nil
				}
				image, err = service.GetPoolImage(ctx, source, identity)
				return err
			})
			if err != nil {
				return userError(profile, err)
			}

			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes)\n", file.Name, len(file.Data)); err != nil {
				return err
			}
			if verify {
				return writePoolImage(cmd.OutOrStdout(), image)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type of FILE (default: guessed from the file)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Fetch the pool image again after uploading")

	return cmd
}

// sessionIdentity picks the cache partition for the current user: the stored session
// when there is one, otherwise the profile's own settings.
func sessionIdentity(ctx context.Context, provider *auth.SessionProvider, profile domain.Profile, dataSource string) (string, string, error) {
	session, err := provider.Session(ctx)
	if err != nil {
		return "", "", err
	}

	identity := session.Username
	if identity == "" {
		identity = profile.Username
	}
	if dataSource == "" {
		dataSource = session.DataSource
	}
	if dataSource == "" {
		dataSource = profile.DataSource
	}
	return dataSource, identity, nil
}

func readUploadFile(path, contentType string) (domain.UploadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("read upload file: %w", err)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}

	return domain.UploadFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func toPoolImageView(image domain.PoolImage) poolImageView {
	view := poolImageView{
		ContentType: image.ContentType,
		Bytes:       len(image.Data),
	}
	if image.Image != nil {
		view.Identifier = image.Image.Identifier
		view.Attributes = image.Image.Attributes
		view.LastActive = image.Image.LastActive
	}
	return view
}

func writePoolImage(w io.Writer, image domain.PoolImage) error {
	if image.Image == nil {
		_, err := fmt.Fprintf(w, "Pool image: %d bytes (%s)\n", len(image.Data), displayContentType(image.ContentType))
		return err
	}

	metadata := image.Image
	lines := []string{fmt.Sprintf("Identifier: %s", metadata.Identifier)}
	if metadata.LastActive != nil {
		lines = append(lines, fmt.Sprintf("Last active: %s", metadata.LastActive.Format(time.RFC3339)))
	}
	if len(metadata.Attributes) > 0 {
		names := make([]string, 0, len(metadata.Attributes))
		for name := range metadata.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)

		lines = append(lines, "Attributes:")
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %s: %s", name, metadata.Attributes[name]))
		}
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func displayContentType(contentType string) string {
	if contentType == "" {
		return "unknown type"
	}
	return contentType
}

