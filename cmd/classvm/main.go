package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyjvm/classvm/pkg/classfile"
	"github.com/tinyjvm/classvm/pkg/disasm"
	"github.com/tinyjvm/classvm/pkg/vm"
)

func main() {
	root := &cobra.Command{
		Use:   "classvm",
		Short: "A small JVM class-file loader, disassembler, and interpreter",
	}
	root.AddCommand(displayCmd(), runCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func displayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "display <classfile>",
		Short: "Disassemble a .class file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := classfile.ParseFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "classvm: %v\n", err)
				return err
			}
			disasm.Print(cmd.OutOrStdout(), cf)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <classfile>",
		Short: "Load and execute a .class file's main method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := classfile.ParseFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "classvm: %v\n", err)
				return err
			}

			dir := classFileDir(args[0])
			interp := vm.NewInterpreter(dir, cmd.OutOrStdout())
			descriptor := "()V"
			if cf.FindMethod("main", "([Ljava/lang/String;)V") != nil {
				descriptor = "([Ljava/lang/String;)V"
			}
			if err := interp.Run(cf, "main", descriptor); err != nil {
				fmt.Fprintf(os.Stderr, "classvm: %v\n", err)
				return err
			}
			return nil
		},
	}
}

func classFileDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
