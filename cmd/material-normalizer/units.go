// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-normalizer/internal/schema"
	"github.com/pdiddy/material-normalizer/internal/units"
)

var unitsCmd = &cobra.Command{
	Use:   "units VALUE",
	Short: "Parse a value expression and convert it",
	Long: `Units parses a value such as "7850 kg/m3", "10-100 ns", or "up to 50 W"
and prints it in the unit given by --to, or in the canonical unit of the
property named by --property. With neither flag the parsed value is printed
as read.`,
	Example: `  material-normalizer units "7850 kg/m3" --to g/cm3
  material-normalizer units "1,064 nm" --property wavelength`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUnits,
}

func runUnits(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	property, _ := cmd.Flags().GetString("property")
	if to != "" && property != "" {
		return fmt.Errorf("use either --to or --property, not both")
	}

	q, err := units.Parse(strings.Join(args, " "))
	if err != nil {
		return err
	}

	var target *units.Unit
	switch {
	case to != "":
		if target, err = units.ParseUnit(to); err != nil {
			return err
		}
	case property != "":
		f, ok := schema.Lookup(property)
		if !ok {
			return fmt.Errorf("unknown property %q", property)
		}
		target = f.CanonicalUnit()
	}

	if target != nil {
		if q.Unit == nil {
			return fmt.Errorf("%q has no unit to convert from", strings.Join(args, " "))
		}
		if q, err = q.To(target); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), units.FormatQuantity(q))
	return nil
}

func init() {
	unitsCmd.Flags().String("to", "", "unit to convert to")
	unitsCmd.Flags().String("property", "", "convert to the canonical unit of this property")

	rootCmd.AddCommand(unitsCmd)
}
