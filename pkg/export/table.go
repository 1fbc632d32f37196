package export

import (
	"io"

	"github.com/Sternrassler/wms-enderecos/pkg/address"
	"github.com/olekukonko/tablewriter"
)

// WriteTable renders addresses as a text table.
func WriteTable(w io.Writer, addrs []address.Address) error {
	header := make([]any, len(address.Columns))
	for i, c := range address.Columns {
		header[i] = c
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)
	if err := table.Bulk(Rows(addrs)); err != nil {
		return err
	}
	return table.Render()
}
