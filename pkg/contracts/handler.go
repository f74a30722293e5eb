package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP surface the application mounts:
// the bookings API and the health and metrics endpoints.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
