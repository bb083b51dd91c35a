package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gitlab_helper/internal/app"
	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/model"
	"gitlab_helper/internal/service/exchange"
	"gitlab_helper/internal/storage"

	"github.com/spf13/cobra"
)

// appLoader builds the application a command runs against
type appLoader func(ctx context.Context) (*app.App, error)

func newRootCmd(load appLoader) *cobra.Command {
	root := &cobra.Command{
		Use:          "exchange",
		Short:        "Export and import GitLab issues and labels",
		Version:      app.Version,
		SilenceUsage: true,
	}
	root.AddCommand(
		newProjectsCmd(load),
		newWhoamiCmd(load),
		newStatsCmd(load),
		newExportCmd(load),
		newImportCmd(load),
	)
	return root
}

func newProjectsCmd(load appLoader) *cobra.Command {
	var (
		search string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects the current user is a member of",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			seq := a.Client.Projects.List(cmd.Context(), search)
			if limit > 0 {
				sets, err := gitlab.Take(seq, limit)
				if err != nil {
					return err
				}
				for _, set := range sets {
					printProject(cmd, set)
				}
				return nil
			}
			for set, err := range seq {
				if err != nil {
					return err
				}
				printProject(cmd, set)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter projects by name or namespace")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many projects, 0 lists all")
	return cmd
}

func printProject(cmd *cobra.Command, set gitlab.DataSet[model.Project]) {
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", set.Payload.ID, set.Payload.PathWithNamespace)
}

func newWhoamiCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user owning the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			user, err := a.Client.Users.Current(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Username, user.Name)
			return nil
		},
	}
}

func newStatsCmd(load appLoader) *cobra.Command {
	var projectID int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the issue counts of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := a.Client.Issues.Statistics(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opened: %d\nclosed: %d\n", stats.Opened, stats.Closed)
			return nil
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newExportCmd(load appLoader) *cobra.Command {
	var (
		projectID int
		input     string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the issues of a project into an exchange document",
		Long: `Export the issues and the labels they use into an exchange document.

The source is either a project (--project) or an existing document (--input),
which is normalized the same way. The document is written to --output, or to
stdout as JSON. Files ending in .yaml or .yml are written as YAML.

Examples:
  exchange export --project 42 -o web.yaml
  exchange export --input web.yaml -o web.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (projectID == 0) == (input == "") {
				return errors.New("exactly one of --project and --input is required")
			}
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}

			src := exchange.ProjectSource(projectID)
			if input != "" {
				data, err := readDocument(input)
				if err != nil {
					return err
				}
				src = exchange.ModelSource(*data)
			}

			data, err := a.Exporter.Export(cmd.Context(), src)
			if err != nil {
				return err
			}
			if output == "" {
				raw, err := storage.FormatJSON.Encode(data)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			if err := writeDocument(output, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d issues and %d labels to %s\n",
				len(data.Issues), len(data.Labels), output)
			return nil
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "project id to export")
	cmd.Flags().StringVar(&input, "input", "", "exchange document to normalize")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout if empty")
	return cmd
}

func newImportCmd(load appLoader) *cobra.Command {
	var (
		projectID int
		input     string
		unordered bool
		opts      exchange.ImportOptions
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an exchange document into a project",
		Long: `Import the labels and issues of an exchange document into a project.

The project is cleaned first according to the --delete-* flags. Issues are
created one after another so they keep the order of the document, unless
--unordered is given.

Examples:
  exchange import --project 42 --input web.yaml
  exchange import --project 42 --input web.yaml --delete-open-issues --delete-unused-labels`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readDocument(input)
			if err != nil {
				return err
			}
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			project, err := a.Client.Projects.GetByID(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			result, err := a.Importer.Import(cmd.Context(), project, *data, opts, !unordered)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d labels and %d issues into %s\n",
				len(result.Labels), len(result.Issues), project.PathWithNamespace)
			return nil
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "project id to import into")
	cmd.Flags().StringVar(&input, "input", "", "exchange document to import")
	cmd.Flags().BoolVar(&opts.DeleteOpenIssues, "delete-open-issues", false, "delete open issues before importing")
	cmd.Flags().BoolVar(&opts.DeleteClosedIssues, "delete-closed-issues", false, "delete closed issues before importing")
	cmd.Flags().BoolVar(&opts.DeleteUnusedLabels, "delete-unused-labels", false, "delete labels nothing refers to before importing")
	cmd.Flags().BoolVar(&unordered, "unordered", false, "create issues concurrently without keeping their order")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func readDocument(path string) (*model.IssueExchangeModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data, err := storage.FormatOf(path).Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return data, nil
}

func writeDocument(path string, data *model.IssueExchangeModel) error {
	raw, err := storage.FormatOf(path).Encode(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
