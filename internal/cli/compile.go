package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brianwhu/xillium-sub000/internal/crud"
)

var (
	compileOp       string
	compileTables   string
	compileColumns  string
	compileRestrict string
	compileDominant string
	compileAction   string
	compileJSON     bool
)

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile one action and print its statements",
	Long: `Compile an action against the configured database and print the SQL
statements with the request fields each placeholder binds.

Either describe the action with flags or name an action of the catalog.

Examples:
  crudc compile --op retrieve --tables users
  crudc compile --op search --tables users --columns name,+email --restrict status=!DELETED
  crudc compile --op create --tables person,employee --json
  crudc compile --action find_users`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&compileOp, "op", "", "operation: CREATE, RETRIEVE, UPDATE, DELETE or SEARCH")
	compileCmd.Flags().StringVar(&compileTables, "tables", "", "comma separated tables, model table first")
	compileCmd.Flags().StringVar(&compileColumns, "columns", "", `comma separated columns; prefix "+" marks a column required`)
	compileCmd.Flags().StringVar(&compileRestrict, "restrict", "", `comma separated col=value literals; "!value" excludes a value`)
	compileCmd.Flags().StringVar(&compileDominant, "dominant", "", "comma separated tables whose columns alone are selected")
	compileCmd.Flags().StringVar(&compileAction, "action", "", "name of a catalog action to compile instead")
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "print the compiled command as JSON")

	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var command *crud.Command
	if compileAction != "" {
		catalog, err := loadCatalog("")
		if err != nil {
			return err
		}
		command, err = crud.NewRegistry(s.compiler, catalog).Get(cmd.Context(), compileAction)
		if err != nil {
			return err
		}
	} else {
		action, err := actionFromFlags()
		if err != nil {
			return err
		}
		command, err = s.compiler.Compile(cmd.Context(), action)
		if err != nil {
			return err
		}
	}

	if compileJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(command)
	}
	printCommand(cmd.OutOrStdout(), command)
	return nil
}

func actionFromFlags() (*crud.Action, error) {
	op, err := crud.ParseOperation(compileOp)
	if err != nil {
		return nil, err
	}
	restriction, err := crud.ParseRestriction(compileRestrict)
	if err != nil {
		return nil, err
	}
	return crud.NewAction(op,
		crud.ParseColumns(compileTables),
		crud.ParseColumns(compileColumns),
		restriction,
		crud.ParseColumns(compileDominant)...)
}

// printCommand writes a command as annotated SQL.
func printCommand(w io.Writer, c *crud.Command) {
	fmt.Fprintf(w, "-- action: %s\n", c.Name)
	fmt.Fprintf(w, "-- request: %s\n", c.Descriptor.TypeName)

	if c.Action.Op != crud.Search {
		for _, st := range c.Statements() {
			printStatement(w, st)
		}
		return
	}

	optional := c.Optional()
	for mask, st := range c.Variants() {
		var present []string
		for k, name := range optional {
			if mask&(1<<k) != 0 {
				present = append(present, name)
			}
		}
		fmt.Fprintf(w, "\n-- variant %d: %s\n", mask, strings.Join(present, ", "))
		printStatement(w, st)
	}
}

func printStatement(w io.Writer, st *crud.Statement) {
	names := make([]string, len(st.Fields))
	for i, f := range st.Fields {
		names[i] = f.Name
	}
	fmt.Fprintf(w, "-- %s %s (%s)\n%s;\n", st.Kind, st.Tag, strings.Join(names, ", "), st.SQL)
}
