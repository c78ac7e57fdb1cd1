package dto

// ImportRowResult resultado de una fila del preview o confirm.
type ImportRowResult struct {
	Row     int    `json:"row"` // número de fila en el archivo (1-based, sin cabecera)
	OK      bool   `json:"ok"`
	Action  string `json:"action,omitempty"` // created | updated
	Message string `json:"message,omitempty"`
}

// ImportReport reporte de éxito parcial de un lote de importación: conteos más
// el detalle de las primeras fallas. Siempre se devuelve, salvo que la
// transacción del lote no pueda abrirse o confirmarse.
type ImportReport struct {
	Created  int               `json:"created"`
	Updated  int               `json:"updated"`
	Failed   int               `json:"failed"`
	Failures []ImportRowResult `json:"failures,omitempty"`
	Rows     []ImportRowResult `json:"rows,omitempty"`
}
