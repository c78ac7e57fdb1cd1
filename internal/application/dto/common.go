package dto

// ErrorResponse respuesta de error estructurada (kind + mensaje humano).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
