package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/wms-enderecos/pkg/export"
	"github.com/Sternrassler/wms-enderecos/pkg/query"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command.
func NewExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch all addresses of a unit and write an xlsx file",
		Long: `Export authenticates with the client credentials, reads every page of
the address listing for the unit and writes the result to an xlsx workbook
with a single sheet named Enderecos_WMS.

Examples:
  # Credentials from the environment
  WMS_CLIENT_ID=... WMS_CLIENT_SECRET=... wms-enderecos export --unit-id 9f1c2d3e-...

  # Also print the table
  wms-enderecos export --unit-id 9f1c2d3e-... --table

  # Choose the output file
  wms-enderecos export --unit-id 9f1c2d3e-... -o addresses.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, a)
		},
	}

	cmd.Flags().String("client-id", "", "OAuth2 client id (env WMS_CLIENT_ID)")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret (env WMS_CLIENT_SECRET)")
	cmd.Flags().StringP("unit-id", "u", "", "Warehouse unit id (env WMS_UNIT_ID)")
	cmd.Flags().StringP("output", "o", "", "Output file (default enderecos_wms_<unit>.xlsx)")
	cmd.Flags().BoolP("table", "t", false, "Print the address table to stdout")

	a.bind(cmd, "client_id", "client-id", false)
	a.bind(cmd, "client_secret", "client-secret", false)
	a.bind(cmd, "unit_id", "unit-id", false)

	return cmd
}

func runExport(cmd *cobra.Command, a *app) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	printTable, err := cmd.Flags().GetBool("table")
	if err != nil {
		return err
	}

	comps, err := buildComponents(a.cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := comps.service.Run(ctx, query.Request{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		UnitID:       a.cfg.UnitID,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", out.Message, err)
	}

	stdout := cmd.OutOrStdout()
	fmt.Fprintln(stdout, out.Message)
	if out.Status == query.StatusEmpty {
		return nil
	}

	if printTable {
		if err := export.WriteTable(stdout, out.Addresses); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}

	if output == "" {
		output = export.FileName(out.UnitID)
	}
	if err := writeWorkbook(output, out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Arquivo salvo: %s\n", output)
	return nil
}

func writeWorkbook(path string, out *query.Outcome) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := export.WriteXLSX(f, out.Addresses); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
