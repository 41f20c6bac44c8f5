package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/sexprbox/channel"
	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [value...]",
		Short: "Encode values as channel records",
		Long: `Encode s-expression values, or a YAML input fixture, into the wire
form guests read from their channel. The records are printed as hex.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("input-file")

			var out []byte
			if file != "" {
				var err error
				if out, err = channel.LoadInput(file); err != nil {
					return err
				}
			}
			for _, text := range args {
				v, err := sexpr.Parse(text)
				if err != nil {
					return err
				}
				out = wire.AppendValue(out, v)
			}
			if len(out) == 0 {
				return fmt.Errorf("nothing to encode: give values or --input-file")
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out))
			return nil
		},
	}
	cmd.Flags().String("input-file", "", "YAML input fixture")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode hex records and print them",
		Long:  `Decode wire records given as hex, as an argument or on stdin, and print one record per line.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) > 0 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}

			b, err := hex.DecodeString(strings.Join(strings.Fields(text), ""))
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}
			return printRecords(cmd.OutOrStdout(), b)
		},
	}
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <value>",
		Short: "Print the canonical form of a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := sexpr.Parse(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sexpr.Render(v))
			return nil
		},
	}
}

// printRecords writes every record in b on its own line.
func printRecords(w io.Writer, b []byte) error {
	return writeRecords(w, "", b)
}

func writeRecords(w io.Writer, prefix string, b []byte) error {
	items, err := wire.DecodeAll(b)
	for _, it := range items {
		fmt.Fprintf(w, "%s%s\n", prefix, it)
	}
	return err
}
