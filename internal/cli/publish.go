package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dfryer1193/weblog/blog/application"
	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/spf13/cobra"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func newPublishCmd(opts *rootOptions) *cobra.Command {
	var reupload bool

	cmd := &cobra.Command{
		Use:          "publish <path>",
		Short:        "Publish a document to the weblog named in its configuration block",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			path := args[0]
			result, err := app.Publisher.Publish(cmd.Context(), path, application.PublishOptions{Reupload: reupload})
			if result != nil {
				printPublishResult(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return fmt.Errorf("publishing %s: %w", path, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reupload, "reupload", false, "upload every image again instead of reusing earlier uploads")
	return cmd
}

func printPublishResult(w io.Writer, r *application.PublishResult) {
	action := "Updated"
	if r.Created {
		action = "Created"
	}
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%s post %d on %s", action, r.PostID, r.Weblog)))
	fmt.Fprintf(w, "%-9s %s\n", "Title:", r.Title)
	if r.PreviewURL != "" {
		fmt.Fprintf(w, "%-9s %s\n", "Preview:", r.PreviewURL)
	}

	reused := 0
	for _, img := range r.Media.Uploaded {
		if img.Reused {
			reused++
		}
	}
	if n := len(r.Media.Uploaded); n > 0 {
		fmt.Fprintf(w, "Images:   %d uploaded, %d reused\n", n-reused, reused)
	}
	for _, skipped := range r.Media.Skipped {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("Skipped %s: %s", skipped.Src, skipped.Reason)))
	}
	if r.DocumentUpdated {
		fmt.Fprintf(w, "Post id %d written to %s\n", r.PostID, r.DocumentPath)
	}
}

func newWeblogsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "weblogs",
		Short:        "List the registered weblogs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			for _, name := range app.Publisher.Weblogs() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:          "history [path]",
		Short:        "Show recorded publications, newest first",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 || offset < 0 {
				return fmt.Errorf("--limit and --offset must not be negative")
			}

			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			publications, err := app.Publisher.History(cmd.Context(), path, limit, offset)
			if err != nil {
				return err
			}
			if len(publications) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No publications recorded.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), historyTable(publications))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of publications to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of publications to skip")
	return cmd
}

func historyTable(publications []*domain.Publication) string {
	rows := make([][]string, 0, len(publications))
	for _, p := range publications {
		action := "update"
		if p.Created {
			action = "create"
		}
		rows = append(rows, []string{
			p.PublishedAt.Local().Format("2006-01-02 15:04"),
			p.Weblog,
			strconv.Itoa(p.PostID),
			action,
			p.Title,
			p.DocumentPath,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PUBLISHED", "WEBLOG", "POST", "ACTION", "TITLE", "DOCUMENT").
		Rows(rows...).
		String()
}
