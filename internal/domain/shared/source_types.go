package shared

// SourceType classifies the origin of a journal entry.
type SourceType string

const (
	SourceTypeManual         SourceType = "MANUAL"
	SourceTypeOpening        SourceType = "OPENING"
	SourceTypeClosing        SourceType = "CLOSING"
	SourceTypeAdjustment     SourceType = "ADJUSTMENT"
	SourceTypeSales          SourceType = "SALES"
	SourceTypeSalesReturn    SourceType = "SALES_RETURN"
	SourceTypePurchase       SourceType = "PURCHASE"
	SourceTypePurchaseReturn SourceType = "PURCHASE_RETURN"
)

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceTypeManual, SourceTypeOpening, SourceTypeClosing, SourceTypeAdjustment,
		SourceTypeSales, SourceTypeSalesReturn, SourceTypePurchase, SourceTypePurchaseReturn:
		return true
	}
	return false
}
