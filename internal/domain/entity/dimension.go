package entity

import "time"

// DimensionKind identifica una tabla de referencia del catálogo.
type DimensionKind string

const (
	DimensionCategory     DimensionKind = "categoria"
	DimensionBrand        DimensionKind = "marca"
	DimensionPresentation DimensionKind = "presentacion"
	DimensionUnitMeasure  DimensionKind = "unidad_medida"
)

// MaxSymbolLength longitud máxima del símbolo de unidad de medida.
const MaxSymbolLength = 10

// Dimension representa una fila de referencia (categoría, marca, presentación
// o unidad de medida). El nombre es único por tabla sin distinguir mayúsculas;
// una fila inactiva con el mismo nombre se reactiva en lugar de duplicarse.
// Symbol solo aplica a unidades de medida (único global, <= 10 caracteres).
type Dimension struct {
	ID          string
	Kind        DimensionKind
	Name        string
	Description string
	Symbol      string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
