package validators

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
)

type StockImportValidator struct {
	*Validator
}

func NewStockImportValidator() *StockImportValidator {
	return &StockImportValidator{
		Validator: NewValidator(),
	}
}

func (iv *StockImportValidator) ValidateInstruction(instruction *data.StockImportInstruction, lineNumber int) {
	iv.Check(instruction.WarehouseCode != "", fmt.Sprintf("line %d - warehouse_code", lineNumber), "warehouse_code cannot be empty")
	iv.Check(instruction.SKU != "", fmt.Sprintf("line %d - sku", lineNumber), "sku cannot be empty")
	iv.Check(instruction.Quantity != "", fmt.Sprintf("line %d - quantity", lineNumber), "quantity cannot be empty")

	if instruction.Quantity != "" {
		quantity, err := decimal.NewFromString(instruction.Quantity)
		if err != nil {
			iv.AddError(fmt.Sprintf("line %d - quantity", lineNumber), "invalid quantity. Quantity must be a number")
		} else {
			iv.Check(!quantity.IsNegative(), fmt.Sprintf("line %d - quantity", lineNumber), "invalid quantity. Quantity cannot be negative")
		}
	}
}

func (iv *StockImportValidator) SanitizeInstruction(instruction *data.StockImportInstruction) *data.StockImportInstruction {
	var sanitizedInstruction data.StockImportInstruction
	sanitizedInstruction.WarehouseCode = strings.TrimSpace(instruction.WarehouseCode)
	sanitizedInstruction.SKU = strings.TrimSpace(instruction.SKU)
	sanitizedInstruction.Description = strings.TrimSpace(instruction.Description)
	sanitizedInstruction.Quantity = strings.TrimSpace(instruction.Quantity)
	sanitizedInstruction.Unit = strings.TrimSpace(instruction.Unit)
	return &sanitizedInstruction
}
