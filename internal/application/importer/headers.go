package importer

import (
	"fmt"

	"github.com/farmaplus/pos-api/internal/application/catalog"
)

// Field es una columna canónica reconocida del archivo de importación.
type Field string

const (
	FieldName         Field = "nombre"
	FieldSKU          Field = "sku"
	FieldBarcode      Field = "codigo_barras"
	FieldCategory     Field = "categoria"
	FieldBrand        Field = "marca"
	FieldPresentation Field = "presentacion"
	FieldUnit         Field = "unidad_medida"
	FieldPrice        Field = "precio"
	FieldStock        Field = "stock"
	FieldExpiration   Field = "vencimiento"
	FieldLot          Field = "lote"
	FieldActive       Field = "activo"
)

// headerSynonyms mapea cada sinónimo de cabecera (normalizado) a su columna
// canónica. Mapeo enumerado explícito, en lugar de matching por substring:
// una cabecera o está en la tabla o se ignora.
var headerSynonyms = map[string]Field{
	"nombre":              FieldName,
	"producto":            FieldName,
	"descripcion":         FieldName,
	"sku":                 FieldSKU,
	"codigo":              FieldSKU,
	"código":              FieldSKU,
	"codigo de barras":    FieldBarcode,
	"código de barras":    FieldBarcode,
	"codigo_barras":       FieldBarcode,
	"barcode":             FieldBarcode,
	"categoria":           FieldCategory,
	"categoría":           FieldCategory,
	"marca":               FieldBrand,
	"laboratorio":         FieldBrand,
	"presentacion":        FieldPresentation,
	"presentación":        FieldPresentation,
	"unidad de medida":    FieldUnit,
	"unidad_medida":       FieldUnit,
	"unidad":              FieldUnit,
	"precio":              FieldPrice,
	"precio venta":        FieldPrice,
	"precio_venta":        FieldPrice,
	"stock":               FieldStock,
	"cantidad":            FieldStock,
	"existencias":         FieldStock,
	"vencimiento":         FieldExpiration,
	"fecha de vencimiento": FieldExpiration,
	"fecha_vencimiento":   FieldExpiration,
	"lote":                FieldLot,
	"numero de lote":      FieldLot,
	"número de lote":      FieldLot,
	"activo":              FieldActive,
	"estado":              FieldActive,
}

// HeaderMap resuelve columnas canónicas a índices de columna del archivo.
type HeaderMap map[Field]int

// MapHeaders valida la fila de cabeceras completa por adelantado y devuelve
// el mapeo columna canónica → índice. Cabeceras desconocidas se ignoran.
// Falla si falta la columna de nombre (única obligatoria) o si dos cabeceras
// resuelven a la misma columna canónica.
func MapHeaders(headers []string) (HeaderMap, error) {
	m := HeaderMap{}
	for i, h := range headers {
		field, ok := headerSynonyms[catalog.Normalize(h)]
		if !ok {
			continue
		}
		if prev, dup := m[field]; dup {
			return nil, fmt.Errorf("cabeceras %d y %d resuelven ambas a %q", prev+1, i+1, field)
		}
		m[field] = i
	}
	if _, ok := m[FieldName]; !ok {
		return nil, fmt.Errorf("falta la columna obligatoria de nombre de producto")
	}
	return m, nil
}

// Value devuelve la celda de la columna canónica, o "" si la columna no está
// mapeada o la fila es corta.
func (m HeaderMap) Value(record []string, field Field) string {
	i, ok := m[field]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
