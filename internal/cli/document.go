package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dfryer1193/weblog/blog/metadata"
	"github.com/spf13/cobra"
)

func newNewCmd(docs domain.DocumentStore) *cobra.Command {
	var title, weblog string
	var force bool

	cmd := &cobra.Command{
		Use:          "new [path]",
		Short:        "Create a post with an empty configuration block",
		Long:         "Create a post with an empty configuration block. Without a path the document is printed.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := metadata.NewPostDocument(title, weblog)
			if len(args) == 0 {
				_, err := io.WriteString(cmd.OutOrStdout(), text)
				return err
			}

			path := args[0]
			if !force {
				if _, err := docs.ReadDocument(cmd.Context(), path); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite it", path)
				}
			}
			if err := docs.WriteDocument(cmd.Context(), path, text); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&weblog, "weblog", "", "name of the weblog to publish to")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newMetaCmd(docs domain.DocumentStore, opts *rootOptions) *cobra.Command {
	var jsonMode, last bool

	cmd := &cobra.Command{
		Use:          "meta <path>",
		Short:        "Show the post configuration of a document",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := docs.ReadDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			doc := metadata.Parse(text)
			if jsonMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc.Metadata)
			}

			printMetadata(cmd.OutOrStdout(), doc)
			if last {
				return printLastPublication(cmd, opts, args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print the metadata as JSON")
	cmd.Flags().BoolVar(&last, "last", false, "also show when the document was last published")
	cmd.AddCommand(newMetaSetCmd(docs))
	return cmd
}

func printMetadata(w io.Writer, doc metadata.Document) {
	m := doc.Metadata
	postID := "(not published)"
	if !m.IsNew() {
		postID = fmt.Sprint(m.PostID)
	}

	fmt.Fprintf(w, "%s\n", headingStyle.Render(m.Title))
	fmt.Fprintf(w, "%-12s %s\n", "Weblog:", m.WeblogName)
	fmt.Fprintf(w, "%-12s %s\n", "Post ID:", postID)
	fmt.Fprintf(w, "%-12s %s\n", "Categories:", m.Categories)
	fmt.Fprintf(w, "%-12s %s\n", "Keywords:", m.Keywords)
	fmt.Fprintf(w, "%-12s %s\n", "Abstract:", m.Abstract)
	if !doc.Block.Found() {
		fmt.Fprintln(w, "No post configuration block.")
	}
}

func printLastPublication(cmd *cobra.Command, opts *rootOptions, path string) error {
	app, err := opts.app()
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.Publisher.LastPublication(cmd.Context(), path)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", "Published:", "never")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s (post %d on %s)\n", "Published:",
		p.PublishedAt.Local().Format("2006-01-02 15:04"), p.PostID, p.Weblog)
	return nil
}

func newMetaSetCmd(docs domain.DocumentStore) *cobra.Command {
	var abstract, categories, keywords, weblog string

	cmd := &cobra.Command{
		Use:          "set <path>",
		Short:        "Update fields of a document's post configuration",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx := cmd.Context()

			text, err := docs.ReadDocument(ctx, path)
			if err != nil {
				return err
			}
			prev := metadata.Parse(text)

			m := prev.Metadata
			fields := []struct {
				flag   string
				value  string
				target *string
			}{
				{"abstract", abstract, &m.Abstract},
				{"categories", categories, &m.Categories},
				{"keywords", keywords, &m.Keywords},
				{"weblog", weblog, &m.WeblogName},
			}
			changed := false
			for _, f := range fields {
				if cmd.Flags().Changed(f.flag) {
					*f.target = f.value
					changed = true
				}
			}
			if !changed {
				return errors.New("nothing to set, pass at least one of --abstract, --categories, --keywords or --weblog")
			}

			// the editor may have saved since the first read
			current, err := docs.ReadDocument(ctx, path)
			if err != nil {
				return err
			}
			doc, err := metadata.Replace(current, prev, m)
			if err != nil {
				return fmt.Errorf("updating %s: %w", path, err)
			}
			if err := docs.WriteDocument(ctx, path, doc.Raw); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&abstract, "abstract", "", "post abstract")
	cmd.Flags().StringVar(&categories, "categories", "", "comma separated categories")
	cmd.Flags().StringVar(&keywords, "keywords", "", "comma separated keywords")
	cmd.Flags().StringVar(&weblog, "weblog", "", "name of the weblog to publish to")
	return cmd
}
