// status.go
package model

import "strings"

// Vocabulario de estados de una orden, en orden de avance esperado.
// La validación es por pertenencia (whitelist), no por grafo estricto:
// sólo los estados finales bloquean nuevas transiciones.
const (
	StatusPending        = "Pending"
	StatusProcessing     = "Processing"
	StatusAssigned       = "Assigned"
	StatusPacked         = "Packed"
	StatusShipped        = "Shipped"
	StatusOutForDelivery = "Out For Delivery"
	StatusDelivered      = "Delivered"
	StatusCancelled      = "Cancelled"
)

var StatusFlow = []string{
	StatusPending,
	StatusProcessing,
	StatusAssigned,
	StatusPacked,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

var validStatuses = map[string]bool{
	StatusPending:        true,
	StatusProcessing:     true,
	StatusAssigned:       true,
	StatusPacked:         true,
	StatusShipped:        true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
}

// Estados finales: no admiten más transiciones.
var terminalStatuses = map[string]bool{
	StatusDelivered: true,
	StatusCancelled: true,
}

// NormalizeStatus limpia la entrada: trim, minúsculas y Title Case
// por palabra ("  out for DELIVERY " -> "Out For Delivery").
func NormalizeStatus(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func IsValidStatus(s string) bool {
	return validStatuses[s]
}

func IsTerminalStatus(s string) bool {
	return terminalStatuses[s]
}
