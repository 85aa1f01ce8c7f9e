// Command inspect_machines prints the machines stored in a machine database and the grinder recipes a
// server would use.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/dm-vev/grindstone/server/machine/grinder"
	"github.com/dm-vev/grindstone/server/machine/store"
	"github.com/spf13/cobra"
)

var dbDir string

var rootCmd = &cobra.Command{
	Use:   "inspect_machines",
	Short: "Inspect stored machines and grinder recipes",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored machines",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <x> <y> <z>",
	Short: "Print the full state of the machine at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runShow,
}

var recipesCmd = &cobra.Command{
	Use:   "recipes [file]",
	Short: "Print the grinder recipes of a recipe file, or the built-in recipes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRecipes,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDir, "db", "machines", "directory of the machine database")
	rootCmd.AddCommand(listCmd, showCmd, recipesCmd)
}

func openDB() (*store.DB, error) {
	return store.Config{Log: slog.New(slog.NewTextHandler(os.Stderr, nil)), ReadOnly: true}.Open(dbDir)
}

func runList(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n := 0
	err = db.Each(func(r store.Record) bool {
		n++
		fmt.Fprintf(cmd.OutOrStdout(), "%v %v %v (%v)\n", r.Pos, r.Kind, r.ID, summary(r))
		return true
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d machines\n", n)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	var pos event.Pos
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("parse coordinate %q: %w", arg, err)
		}
		pos[i] = v
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.Load(pos)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%v at %v\nid: %v\n", r.Kind, r.Pos, r.ID)
	for _, key := range []string{"Items", "upgrades"} {
		for _, entry := range machine.Slice(r.Data, key) {
			fmt.Fprintf(out, "%v[%d]: %v\n", key, machine.Uint8(entry, "Slot"), machine.DecodeStack(entry))
		}
	}
	for key, v := range r.Data {
		if key == "Items" || key == "upgrades" {
			continue
		}
		fmt.Fprintf(out, "%v: %v\n", key, v)
	}
	return nil
}

func runRecipes(cmd *cobra.Command, args []string) error {
	recipes := grinder.DefaultRecipes()
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read recipes: %w", err)
		}
		if recipes, err = grinder.ParseRecipes(data); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	for _, r := range recipes {
		fmt.Fprintf(out, "%v: %dx %v, %d turns => %v\n", r.ID, r.IngredientCount, r.Ingredient, r.Turns, r.Output)
		for _, o := range r.Optional {
			fmt.Fprintf(out, "    %v at %.1f%%\n", o.Result, o.Chance*100)
		}
	}
	return nil
}

// summary returns a short description of the contents of a record.
func summary(r store.Record) string {
	switch r.Kind {
	case "Grinder":
		return fmt.Sprintf("%d stacks, %d turns", len(machine.Slice(r.Data, "Items")), machine.Int32(r.Data, "Turns"))
	case "AutoCrank":
		return fmt.Sprintf("%d cards, redstone %v", len(machine.Slice(r.Data, "upgrades")), machine.String(r.Data, "redstone_controlled"))
	}
	return fmt.Sprintf("%d keys", len(r.Data))
}
