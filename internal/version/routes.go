package version

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers schema-revision ledger routes with the Chi router
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Route("/database-versions", func(r chi.Router) {
		// GET /api/v1/database-versions - List live ledger entries
		r.Get("/", handler.List)

		// GET /api/v1/database-versions/by-name/:name - Lookup by revision name
		r.Get("/by-name/{name}", handler.GetByName)

		// GET /api/v1/database-versions/:id - Get one entry (soft-deleted included)
		r.Get("/{id}", handler.Get)

		// PUT /api/v1/database-versions/:id - Ledger correction
		r.Put("/{id}", handler.Update)

		// DELETE /api/v1/database-versions/:id - Soft delete
		r.Delete("/{id}", handler.Delete)

		// DELETE /api/v1/database-versions/:id/purge - Hard delete
		r.Delete("/{id}/purge", handler.Purge)
	})
}
