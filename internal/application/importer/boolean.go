package importer

import "github.com/farmaplus/pos-api/internal/application/catalog"

// BoolResult resultado etiquetado del parseo de celdas "Sí/No".
type BoolResult int

const (
	BoolYes BoolResult = iota
	BoolNo
	BoolUnrecognized
)

// ParseSiNo interpreta una celda booleana en español. Devuelve un resultado
// etiquetado en lugar de coerción implícita; el valor no reconocido existe
// como caso propio para que el caller decida.
func ParseSiNo(s string) BoolResult {
	switch catalog.Normalize(s) {
	case "si", "sí", "s", "yes", "y", "true", "1", "activo":
		return BoolYes
	case "no", "n", "false", "0", "inactivo":
		return BoolNo
	default:
		return BoolUnrecognized
	}
}

// Value colapsa el resultado a bool. Lo no reconocido (incluida la celda
// vacía) cuenta como Sí: comportamiento documentado del que depende el
// importador. Pregunta abierta registrada en DESIGN.md — una política más
// estricta rechazaría el valor.
func (b BoolResult) Value() bool {
	return b != BoolNo
}
