// File: bettermind/handlers/bundle.go
package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Availability endpoints
	GetAvailableSlots gin.HandlerFunc

	// Appointment endpoints
	CreateAppointment gin.HandlerFunc
	ListAppointments  gin.HandlerFunc
	GetAppointment    gin.HandlerFunc
	UpdateAppointment gin.HandlerFunc
	CancelAppointment gin.HandlerFunc

	Health gin.HandlerFunc
}
