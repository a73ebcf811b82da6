package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"motorhub/internal/motor"
	"motorhub/pkg/motorid"
)

var (
	keyColor   = color.New(color.FgGreen, color.Bold)
	labelColor = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newKeyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "key <description>...",
		Short:   "Print the catalog key for each description",
		Example: `  motorctl key "2024 Mercury FourStroke 9.9 HP EFI ELH" "150 Pro XS XL"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if g.outputJSON {
				keys := make(map[string]string, len(args))
				for _, a := range args {
					keys[a] = motorid.BuildKey(a)
				}
				return printJSON(out, keys)
			}
			for _, a := range args {
				key := motorid.BuildKey(a)
				if key == "" {
					warnColor.Fprintf(out, "(no key)\n")
					continue
				}
				keyColor.Fprintln(out, key)
			}
			return nil
		},
	}
}

func newParseCmd(g *globals) *cobra.Command {
	var (
		features []string
		remote   string
	)
	cmd := &cobra.Command{
		Use:   "parse <description>",
		Short: "Show everything derived from one description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id motor.Identity
			if remote != "" {
				var err error
				id, err = parseRemote(cmd.Context(), remote, args[0], features)
				if err != nil {
					return err
				}
			} else {
				id = motor.Identify(args[0], features...)
			}

			out := cmd.OutOrStdout()
			if g.outputJSON {
				return printJSON(out, id)
			}
			printIdentity(out, id)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&features, "feature", "f", nil, "feature text, repeatable")
	cmd.Flags().StringVar(&remote, "remote", "", "parse through a grpc-server at this address")
	return cmd
}

func printIdentity(w io.Writer, id motor.Identity) {
	row := func(label, value string) {
		labelColor.Fprintf(w, "%-14s", label)
		fmt.Fprintln(w, value)
	}
	row("normalized", id.Normalized)
	row("family", string(id.Parsed.Family))
	hp := id.Parsed.HorsepowerString()
	if hp == "" {
		hp = "-"
	}
	row("horsepower", hp)
	row("fuel", string(id.Parsed.Fuel))
	row("rigging", strings.Join(id.Parsed.Rigging, " "))
	row("motor family", string(id.MotorFamily))
	row("display", id.DisplayName)
	labelColor.Fprintf(w, "%-14s", "key")
	keyColor.Fprintln(w, id.ModelKey)
	row("slug", id.Slug)
	if id.LowConfidence {
		warnColor.Fprintln(w, "low confidence: nothing structured was found")
	}
}

func newClassifyCmd(g *globals) *cobra.Command {
	var (
		hp       string
		features []string
	)
	cmd := &cobra.Command{
		Use:   "classify <model>",
		Short: "Assign the marketing family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var power float64
			if hp != "" {
				v, err := strconv.ParseFloat(hp, 64)
				if err != nil {
					return fmt.Errorf("--hp: %w", err)
				}
				power = v
			} else if pm := motorid.Parse(args[0]); pm.Horsepower != nil {
				power = *pm.Horsepower
			}

			family := motorid.ClassifyFamily(power, args[0], features...)
			if g.outputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"motor_family": family, "horsepower": power})
			}
			keyColor.Fprintln(cmd.OutOrStdout(), family)
			return nil
		},
	}
	cmd.Flags().StringVar(&hp, "hp", "", "horsepower (default: read from the model)")
	cmd.Flags().StringSliceVarP(&features, "feature", "f", nil, "feature text, repeatable")
	return cmd
}

func newFormatCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "format <model>...",
		Short: "Re-space and re-case model strings for display",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if g.outputJSON {
				formatted := make([]string, len(args))
				for i, a := range args {
					formatted[i] = motorid.FormatDisplay(a)
				}
				return printJSON(out, formatted)
			}
			for _, a := range args {
				fmt.Fprintln(out, motorid.FormatDisplay(a))
			}
			return nil
		},
	}
}
