package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
	"github.com/FACorreiaa/statement-import/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-import/internal/domain/import/export"
	"github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

// Output formats.
const (
	formatCSV  = "csv"
	formatJSON = "json"
)

func newParseCommand(c *cli) *cobra.Command {
	var bankID, format string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Map a statement export to canonical transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			opts, err := importOptions(args[0], bankID)
			if err != nil {
				return err
			}
			data, err := readStatement(args[0])
			if err != nil {
				return err
			}

			res, err := c.deps.ImportService.Import(cmd.Context(), c.userID, data, opts)
			if err != nil {
				return err
			}
			if res.NeedsMapping {
				return writeMappingRequest(cmd, args[0], res)
			}

			if format == formatJSON {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else if err := export.WriteCanonical(cmd.OutOrStdout(), res.Rows, export.Options{}); err != nil {
				return err
			}
			return writeSummary(cmd.ErrOrStderr(), res)
		},
	}

	cmd.Flags().StringVar(&bankID, "bank", "", "bank profile id, skips detection")
	cmd.Flags().StringVar(&format, "format", formatCSV, "output format (csv or json)")

	return cmd
}

func newCategorizeCommand(c *cli) *cobra.Command {
	var bankID, format string

	cmd := &cobra.Command{
		Use:   "categorize <file>",
		Short: "Map a statement export and assign a category to every transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			opts, err := importOptions(args[0], bankID)
			if err != nil {
				return err
			}
			data, err := readStatement(args[0])
			if err != nil {
				return err
			}

			res, err := c.deps.ImportService.Import(cmd.Context(), c.userID, data, opts)
			if err != nil {
				return err
			}
			if res.NeedsMapping {
				return writeMappingRequest(cmd, args[0], res)
			}

			categorized := c.deps.Categorizer.Categorize(cmd.Context(), res.Rows)
			if format == formatJSON {
				if err := writeJSON(cmd.OutOrStdout(), categorized); err != nil {
					return err
				}
			} else if err := export.WriteCategorized(cmd.OutOrStdout(), categorized, export.Options{}); err != nil {
				return err
			}
			return writeSummary(cmd.ErrOrStderr(), res)
		},
	}

	cmd.Flags().StringVar(&bankID, "bank", "", "bank profile id, skips detection")
	cmd.Flags().StringVar(&format, "format", formatCSV, "output format (csv or json)")

	return cmd
}

func newFingerprintCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <file>",
		Short: "Print the file-shape fingerprint used to recall saved mappings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readStatement(args[0])
			if err != nil {
				return err
			}
			res, err := c.deps.ImportService.Inspect(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			detected := res.AdapterID
			if detected == "" {
				detected = "-"
			}
			_, err = fmt.Fprintf(out, "fingerprint: %s\nencoding:    %s\nbank:        %s\nheaders:     %q\n",
				res.Fingerprint, res.Encoding, detected, res.Headers)
			return err
		},
	}
}

func newMapCommand(c *cli) *cobra.Command {
	var adapterPath, name, format string

	cmd := &cobra.Command{
		Use:   "map <file>",
		Short: "Apply a column mapping to a statement and save it for files of the same shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			a, err := readAdapter(adapterPath)
			if err != nil {
				return err
			}
			data, err := readStatement(args[0])
			if err != nil {
				return err
			}

			res, err := c.deps.ImportService.SubmitMapping(cmd.Context(), c.userID, data, a, name)
			if err != nil {
				return err
			}

			if format == formatJSON {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else if err := export.WriteCanonical(cmd.OutOrStdout(), res.Rows, export.Options{}); err != nil {
				return err
			}
			return writeSummary(cmd.ErrOrStderr(), res)
		},
	}

	cmd.Flags().StringVar(&adapterPath, "adapter", "", "adapter definition (JSON file)")
	_ = cmd.MarkFlagRequired("adapter")
	cmd.Flags().StringVar(&name, "name", "", "display name of the saved mapping")
	cmd.Flags().StringVar(&format, "format", formatCSV, "output format (csv or json)")

	return cmd
}

func checkFormat(format string) error {
	switch format {
	case formatCSV, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want csv or json)", format)
}

func importOptions(path, bankID string) (service.Options, error) {
	opts := service.Options{Filename: filepath.Base(path)}
	if bankID != "" {
		id, err := bank.Parse(bankID)
		if err != nil {
			return opts, err
		}
		opts.Bank = id
	}
	return opts, nil
}

func readStatement(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	return data, nil
}

func readAdapter(path string) (adapter.Adapter, error) {
	var a adapter.Adapter
	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("reading adapter: %w", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("decoding adapter %s: %w", path, err)
	}
	return a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeMappingRequest prints the headers, sample rows and suggested adapter
// so the user can complete a mapping and pass it to the map command.
func writeMappingRequest(cmd *cobra.Command, path string, res *service.Result) error {
	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.ErrOrStderr(),
		"format not recognized; complete the suggested adapter and run: stmtimport map %s --adapter <file.json>\n", path)
	return err
}

// writeSummary prints warnings and per-currency totals.
func writeSummary(w io.Writer, res *service.Result) error {
	for _, warning := range res.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}

	ledger := money.Ledger{}
	for _, tx := range res.Rows {
		if err := ledger.Add(tx.Decimal(), tx.Currency); err != nil {
			return fmt.Errorf("summing totals: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "%d transactions via %s\n", len(res.Rows), res.AdapterID); err != nil {
		return err
	}
	for _, code := range ledger.Codes() {
		if _, err := fmt.Fprintf(w, "  %s %s\n", code, ledger[code].Display()); err != nil {
			return err
		}
	}
	return nil
}
