package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steviemul/offily"
)

var putCmd = &cobra.Command{
	Use:   "put KEY VALUE",
	Short: "Store a value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *offily.Cache[string, string]) error {
			prev, had, err := c.Put(args[0], args[1])
			if err != nil {
				return err
			}
			if had && verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "replaced %q\n", prev)
			}
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *offily.Cache[string, string]) error {
			v, ok, err := c.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm KEY",
	Aliases: []string{"remove"},
	Short:   "Remove a value",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *offily.Cache[string, string]) error {
			_, ok, err := c.Remove(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			return nil
		})
	},
}

var containsCmd = &cobra.Command{
	Use:   "contains KEY",
	Short: "Report whether a key is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *offily.Cache[string, string]) error {
			ok, err := c.Contains(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *offily.Cache[string, string]) error {
			return c.Clear()
		})
	},
}

func init() {
	rootCmd.AddCommand(putCmd, getCmd, rmCmd, containsCmd, clearCmd)
}
