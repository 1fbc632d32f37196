// Package address defines WMS address records as returned by the listing
// endpoint and their flattened, sanitized form used for tables and exports.
package address

// Column headers in hand-off order.
const (
	ColumnID                 = "ID Endereço"
	ColumnDescription        = "Descrição Endereço"
	ColumnBarcode            = "Código de Barras"
	ColumnDepositDescription = "Depósito"
	ColumnDepositID          = "ID Depósito"
	ColumnSituation          = "Situação"
)

// Columns is the fixed column order of the address table.
var Columns = []string{
	ColumnID,
	ColumnDescription,
	ColumnBarcode,
	ColumnDepositDescription,
	ColumnDepositID,
	ColumnSituation,
}

// Raw is one item of the listing endpoint's "items" array.
// Fields are untyped so that non-string JSON values reach Normalize unchanged.
type Raw struct {
	ID           any         `json:"id"`
	Descricao    any         `json:"descricao"`
	CodigoBarras any         `json:"codigoBarras"`
	Situacao     any         `json:"situacao"`
	Deposito     *RawDeposit `json:"deposito"`
}

// RawDeposit is the nested deposit object of a raw address.
type RawDeposit struct {
	ID        any `json:"id"`
	Descricao any `json:"descricao"`
}

// Address is a normalized, flat address record.
type Address struct {
	ID                 any `json:"id"`
	Description        any `json:"description"`
	Barcode            any `json:"barcode"`
	DepositDescription any `json:"deposit_description"`
	DepositID          any `json:"deposit_id"`
	Situation          any `json:"situation"`
}

// Row returns the record values in Columns order.
func (a Address) Row() []any {
	return []any{
		a.ID,
		a.Description,
		a.Barcode,
		a.DepositDescription,
		a.DepositID,
		a.Situation,
	}
}
