package data

// StockImportInstruction is one row of a stock level import file. Rows
// reference warehouses by code because that is what operators work with;
// the import handler resolves codes to warehouse IDs before upserting.
type StockImportInstruction struct {
	WarehouseCode string `csv:"warehouse_code"`
	SKU           string `csv:"sku"`
	Description   string `csv:"description"`
	Quantity      string `csv:"quantity"`
	Unit          string `csv:"unit"`
}
