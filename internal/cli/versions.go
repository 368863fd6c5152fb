package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/errors"
	"github.com/flowsmith/flowsmith/pkg/store"
	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
)

// versionsCommand creates the versions command group for the shared
// version store. The store backend is MongoDB, configured through
// FLOWSMITH_MONGO_URI or --uri.
func (c *CLI) versionsCommand() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage saved workflow versions",
		Long: `Versions saves and retrieves workflow documents from a shared MongoDB
store. Every save gets a per-workflow sequence number, so two documents can
be fetched and diffed later. Configure the store with FLOWSMITH_MONGO_URI
or --uri.`,
	}

	cmd.PersistentFlags().StringVar(&uri, "uri", "", "MongoDB connection URI (default: $FLOWSMITH_MONGO_URI)")

	cmd.AddCommand(c.versionsSaveCommand(&uri))
	cmd.AddCommand(c.versionsListCommand(&uri))
	cmd.AddCommand(c.versionsShowCommand(&uri))

	return cmd
}

func (c *CLI) openStore(cmd *cobra.Command, uri string) (store.Store, error) {
	if uri == "" {
		uri = os.Getenv("FLOWSMITH_MONGO_URI")
	}
	if uri == "" {
		return nil, fmt.Errorf("no version store configured (set FLOWSMITH_MONGO_URI or pass --uri)")
	}
	return store.NewMongoStore(cmd.Context(), uri, "", "")
}

func (c *CLI) versionsSaveCommand(uri *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Save a workflow document as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := codec.ParseFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = g.Meta().Name
			}
			if err := errors.ValidateWorkflowName(name); err != nil {
				return err
			}
			canonical, err := codec.Serialize(g)
			if err != nil {
				return err
			}

			s, err := c.openStore(cmd, *uri)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			v, err := s.Put(cmd.Context(), name, canonical)
			if err != nil {
				return err
			}
			printSuccess("saved %s version %d", name, v.Number)
			printDetail("id: %s", v.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "workflow name (default: the document's name)")
	return cmd
}

func (c *CLI) versionsListCommand(uri *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list [workflow]",
		Short: "List saved versions of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd, *uri)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			vs, err := s.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(vs) == 0 {
				printInfo("no versions saved for %s", args[0])
				return nil
			}
			for _, v := range vs {
				fmt.Println(StyleHighlight.Render(fmt.Sprintf("%4d", v.Number)) +
					"  " + StyleDim.Render(v.CreatedAt.Format("2006-01-02 15:04:05")) +
					"  " + StyleDim.Render(v.ID))
			}
			return nil
		},
	}
}

func (c *CLI) versionsShowCommand(uri *string) *cobra.Command {
	var number int

	cmd := &cobra.Command{
		Use:   "show [workflow]",
		Short: "Print a saved version's document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd, *uri)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			var v store.Version
			if number > 0 {
				v, err = s.Get(cmd.Context(), args[0], number)
			} else {
				v, err = s.Latest(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Print(v.Document)
			return nil
		},
	}

	cmd.Flags().IntVarP(&number, "number", "n", 0, "version number (default: latest)")
	return cmd
}
