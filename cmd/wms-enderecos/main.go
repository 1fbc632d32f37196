// Package main provides the wms-enderecos CLI.
//
// It exports every storage address of a WMS unit to an Excel workbook,
// either from the command line or through a small browser front end.
//
// Usage:
//
//	wms-enderecos export --unit-id <id> [--table] [--output file.xlsx]
//	wms-enderecos serve [--listen :8080]
//
// Credentials are read from --client-id/--client-secret or the
// WMS_CLIENT_ID and WMS_CLIENT_SECRET environment variables.
package main

func main() {
	Execute()
}
