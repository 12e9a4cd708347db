package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/rule"
)

var (
	ruleDepsReverse    bool
	ruleDepsTransitive bool
)

var ruleDepsCmd = &cobra.Command{
	Use:   depsCmdStr + " <rule>",
	Short: "Show a rule's dependencies (or its dependents with --reverse)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleDeps,
}

func init() {
	ruleDepsCmd.Flags().BoolVar(&ruleDepsReverse, "reverse", false, "Show rules that depend on this rule instead")
	ruleDepsCmd.Flags().BoolVar(&ruleDepsTransitive, "transitive", false, "Follow the dependency graph transitively")
	ruleCmd.AddCommand(ruleDepsCmd)
}

func runRuleDeps(cmd *cobra.Command, args []string) error {
	cat, err := loadRulesCatalog()
	if err != nil {
		return err
	}

	doc, err := cat.Resolve(args[0])
	if err != nil {
		return err
	}

	var deps []*rule.Document
	switch {
	case ruleDepsReverse:
		deps = cat.ReverseDeps(doc)
	case ruleDepsTransitive:
		deps, err = cat.TransitiveDeps(doc)
		if err != nil {
			return err
		}
	default:
		deps = cat.DirectDeps(doc)
	}

	if len(deps) == 0 {
		if ruleDepsReverse {
			fmt.Printf("No rules depend on %s.\n", doc.Filename)
		} else {
			fmt.Printf("%s has no dependencies.\n", doc.Filename)
		}
		return nil
	}

	for _, dep := range deps {
		fmt.Println(dep.Filename)
	}

	if missing := cat.MissingDeps(doc); !ruleDepsReverse && len(missing) > 0 {
		for _, name := range missing {
			fmt.Printf("%s (missing)\n", name)
		}
	}

	return nil
}
