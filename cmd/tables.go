package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/edalab/edachat/internal/config"
	"github.com/edalab/edachat/internal/tables"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Manage and summarize the configured dataset tables",
}

var tablesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if len(c.Tables) == 0 {
			fmt.Println("No tables configured. Add one with: edachat tables add <path> [--name <name>]")
			return nil
		}
		for _, ref := range c.Tables {
			fmt.Printf("%s\t%s\n", ref.Name, ref.Path)
		}
		return nil
	},
}

var tablesShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Summarize configured tables (rows, column kinds, stats, correlations)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ts, err := loadTables(c)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			for _, t := range ts {
				if t.Name == args[0] {
					fmt.Print(tables.Summarize(t, tables.DefaultOptions()).Markdown())
					return nil
				}
			}
			return fmt.Errorf("table %q not configured", args[0])
		}
		fmt.Print(tables.Describe(ts, tables.DefaultOptions()))
		return nil
	},
}

var flagTableName string

var tablesAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Add a table file to the configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		// Load now to fail fast on unsupported or unreadable files.
		t, err := tables.LoadFile(args[0], flagTableName)
		if err != nil {
			return err
		}
		for _, ref := range c.Tables {
			if ref.Name == t.Name {
				return fmt.Errorf("table %q already configured", t.Name)
			}
		}
		c.Tables = append(c.Tables, cfgpkg.TableRef{Name: t.Name, Path: args[0]})
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Printf("Added table %s (%d rows)\n", t.Name, len(t.Rows))
		return nil
	},
}

var tablesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a table from the configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		kept := c.Tables[:0]
		found := false
		for _, ref := range c.Tables {
			if ref.Name == args[0] {
				found = true
				continue
			}
			kept = append(kept, ref)
		}
		if !found {
			return fmt.Errorf("table %q not configured", args[0])
		}
		c.Tables = kept
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Printf("Removed table %s\n", args[0])
		return nil
	},
}

func init() {
	tablesAddCmd.Flags().StringVar(&flagTableName, "name", "", "variable name for the table (default: file name)")
	tablesCmd.AddCommand(tablesListCmd)
	tablesCmd.AddCommand(tablesShowCmd)
	tablesCmd.AddCommand(tablesAddCmd)
	tablesCmd.AddCommand(tablesRemoveCmd)
	rootCmd.AddCommand(tablesCmd)
}
