// Command noproto is a thin exerciser around the noproto package: compile a
// schema from IDL, JSON, or YAML, print its binary or JSON form, and parse a
// buffer type expression against it. It is not a core component — the
// library at the repository root is the product, this is a diagnostic
// front end for it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/only-cliches/noproto-go"
)

var (
	schemaPath string
	schemaForm string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "noproto",
		Short: "Compile and inspect NoProto schemas",
	}
	root.PersistentFlags().StringVarP(&schemaPath, "schema", "s", "", "path to a schema file (required)")
	root.PersistentFlags().StringVarP(&schemaForm, "form", "f", "idl", "schema surface syntax: idl, json, or yaml")
	root.MarkPersistentFlagRequired("schema")

	root.AddCommand(newBytesCmd())
	root.AddCommand(newIDLCmd())
	root.AddCommand(newJSONCmd())
	root.AddCommand(newTypeCmd())
	root.AddCommand(newRPCCmd())

	return root
}

func loadSchema() (*noproto.CompiledSchema, error) {
	src, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", schemaPath, err)
	}
	compiler := noproto.NewCompiler()
	switch schemaForm {
	case "idl", "":
		return compiler.Compile(src)
	case "json":
		return compiler.CompileJSON(src)
	case "yaml":
		return compiler.CompileYAML(src)
	default:
		return nil, fmt.Errorf("unrecognized --form %q (want idl, json, or yaml)", schemaForm)
	}
}

func newBytesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bytes",
		Short: "Print the compiled schema's binary form to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := loadSchema()
			if err != nil {
				return err
			}
			data, err := cs.ToBytes()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newIDLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "idl",
		Short: "Render the compiled schema back into IDL source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := loadSchema()
			if err != nil {
				return err
			}
			idl, err := cs.GenerateIDL()
			if err != nil {
				return err
			}
			fmt.Print(idl)
			return nil
		},
	}
}

func newJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "json",
		Short: "Render the compiled schema into its JSON-form document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := loadSchema()
			if err != nil {
				return err
			}
			val, err := cs.ToJSON()
			if err != nil {
				return err
			}
			fmt.Println(val.Stringify())
			return nil
		},
	}
}

func newTypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "type <expr>",
		Short: "Parse a buffer type expression against the schema and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := loadSchema()
			if err != nil {
				return err
			}
			bt, err := noproto.ParseType(args[0], cs)
			if err != nil {
				return err
			}
			if bt == nil {
				fmt.Println("(empty)")
				return nil
			}
			fmt.Println(bt.GenerateString(cs))
			return nil
		},
	}
}

func newRPCCmd() *cobra.Command {
	var isResponse bool
	cmd := &cobra.Command{
		Use:   "rpc <type.method>",
		Short: "Resolve an RPC method reference against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := loadSchema()
			if err != nil {
				return err
			}
			bt, err := noproto.ParseTypeRPC(isResponse, args[0], cs)
			if err != nil {
				return err
			}
			fmt.Println(bt.GenerateString(cs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&isResponse, "response", false, "resolve the method's response type instead of its request type")
	return cmd
}
