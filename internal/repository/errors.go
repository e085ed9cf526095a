package repository

import "errors"

var (
	ErrNotFound  = errors.New("documento no encontrado")
	ErrDuplicate = errors.New("documento duplicado")
	// ErrStale: la condición del filtro dejó de cumplirse (escritura
	// concurrente o stock insuficiente, según la operación).
	ErrStale = errors.New("la escritura condicional no encontró el documento esperado")
)
