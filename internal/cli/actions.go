package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/audit"
)

// actionsFile is the YAML form used by "actions import" and "actions export".
//
//	actions:
//	  - id: house-lights
//	    name: House lights
//	    triggers: [clear_all, "start_trigger:2"]
//	    values:
//	      "start_trigger:2": {id: t-house}
type actionsFile struct {
	Actions []actionEntry `yaml:"actions"`
}

type actionEntry struct {
	ID                 string         `yaml:"id,omitempty"`
	Name               string         `yaml:"name,omitempty"`
	Triggers           []string       `yaml:"triggers"`
	Values             map[string]any `yaml:"values,omitempty"`
	Enabled            *bool          `yaml:"enabled,omitempty"`
	CustomActivation   string         `yaml:"custom_activation,omitempty"`
	SpecificActivation string         `yaml:"specific_activation,omitempty"`
	SortOrder          int            `yaml:"sort_order,omitempty"`
}

func (e actionEntry) toAction() *action.Action {
	return &action.Action{
		ID:                 e.ID,
		Name:               e.Name,
		Triggers:           e.Triggers,
		ActionValues:       e.Values,
		Enabled:            e.Enabled,
		CustomActivation:   e.CustomActivation,
		SpecificActivation: e.SpecificActivation,
		SortOrder:          e.SortOrder,
	}
}

func entryFromAction(a action.Action) actionEntry {
	return actionEntry{
		ID:                 a.ID,
		Name:               a.Name,
		Triggers:           a.Triggers,
		Values:             a.ActionValues,
		Enabled:            a.Enabled,
		CustomActivation:   a.CustomActivation,
		SpecificActivation: a.SpecificActivation,
		SortOrder:          a.SortOrder,
	}
}

func newActionsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List, import and export stored actions",
		Long: `Works directly on the database, so it can be used while the server
is stopped. A running server picks up imported actions on its next start.`,
	}

	cmd.AddCommand(
		newActionsListCommand(opts),
		newActionsImportCommand(opts),
		newActionsExportCommand(opts),
	)
	return cmd
}

// store is the action registry and audit trail of one database.
type store struct {
	registry *action.Registry
	audit    audit.Repository
}

// withStore opens and migrates the database, loads the registry and calls
// fn with it.
func withStore(ctx context.Context, opts *options, fn func(store) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := action.NewRegistry(action.NewSQLiteRepository(db.DB))
	if err := registry.RefreshCache(ctx); err != nil {
		return fmt.Errorf("loading actions: %w", err)
	}
	return fn(store{registry: registry, audit: audit.NewSQLiteRepository(db.DB)})
}

func newActionsListCommand(opts *options) *cobra.Command {
	var activation string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(st store) error {
				actions, err := st.registry.ListActions(cmd.Context())
				if err != nil {
					return err
				}
				return writeActionTable(cmd.OutOrStdout(), actions, activation)
			})
		},
	}

	cmd.Flags().StringVar(&activation, "activation", "", "Only list actions with this custom activation")
	return cmd
}

func writeActionTable(out io.Writer, actions []action.Action, activation string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRIGGERS\tENABLED\tACTIVATION")
	for i := range actions {
		a := &actions[i]
		if activation != "" && a.CustomActivation != activation {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			a.ID, a.Name, strings.Join(a.Triggers, ","), a.IsEnabled(), a.CustomActivation)
	}
	return w.Flush()
}

func newActionsImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or update actions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			var file actionsFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			return withStore(cmd.Context(), opts, func(st store) error {
				created, updated, err := importActions(cmd.Context(), st, args[0], file.Actions)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d updated\n", created, updated)
				return nil
			})
		},
	}
}

// importActions updates entries whose id already exists and creates the rest.
// It stops at the first invalid entry; earlier entries stay saved.
func importActions(ctx context.Context, st store, source string, entries []actionEntry) (created, updated int, err error) {
	for i, e := range entries {
		a := e.toAction()

		mode := "created"
		if a.ID != "" {
			err = st.registry.UpdateAction(ctx, a)
			if err != nil && !errors.Is(err, action.ErrActionNotFound) {
				return created, updated, fmt.Errorf("action %d (%s): %w", i+1, a.ID, err)
			}
			if err == nil {
				mode = "updated"
			}
		}
		if mode == "created" {
			if err = st.registry.CreateAction(ctx, a); err != nil {
				return created, updated, fmt.Errorf("action %d (%s): %w", i+1, e.Name, err)
			}
			created++
		} else {
			updated++
		}

		entry := &audit.Entry{
			Operation: audit.OpImport,
			ActionID:  a.ID,
			Subject:   currentUser(),
			Source:    audit.SourceCLI,
			Details:   map[string]any{"file": source, "result": mode, "name": a.Name},
		}
		if err = st.audit.Create(ctx, entry); err != nil {
			return created, updated, fmt.Errorf("auditing action %s: %w", a.ID, err)
		}
	}
	return created, updated, nil
}

// currentUser names the operator running the CLI for the audit trail.
func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func newActionsExportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every stored action as YAML to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(st store) error {
				actions, err := st.registry.ListActions(cmd.Context())
				if err != nil {
					return err
				}
				return exportActions(cmd.OutOrStdout(), actions)
			})
		},
	}
}

func exportActions(out io.Writer, actions []action.Action) error {
	file := actionsFile{Actions: make([]actionEntry, 0, len(actions))}
	for _, a := range actions {
		file.Actions = append(file.Actions, entryFromAction(a))
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encoding actions: %w", err)
	}
	return enc.Close()
}
