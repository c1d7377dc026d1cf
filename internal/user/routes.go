package user

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers broker-user management routes with the Chi router
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Route("/users", func(r chi.Router) {
		// GET /api/v1/users - List live users
		r.Get("/", handler.List)

		// POST /api/v1/users - Register a broker user
		r.Post("/", handler.Create)

		// GET /api/v1/users/client-id-prefixes - Prefixes of all live users
		r.Get("/client-id-prefixes", handler.ClientIDPrefixes)

		// DELETE /api/v1/users/entries/:entryId - Soft-delete an entry
		r.Delete("/entries/{entryId}", handler.DeleteEntry)

		// DELETE /api/v1/users/entries/:entryId/purge - Hard-delete an entry
		r.Delete("/entries/{entryId}/purge", handler.PurgeEntry)

		// GET /api/v1/users/:id - Get one user (soft-deleted included)
		r.Get("/{id}", handler.Get)

		// PUT /api/v1/users/:id - Full-row update
		r.Put("/{id}", handler.Update)

		// POST /api/v1/users/:id/reset-password - Credential reset
		r.Post("/{id}/reset-password", handler.ResetPassword)

		// DELETE /api/v1/users/:id - Soft delete (username stays reserved)
		r.Delete("/{id}", handler.Delete)

		// DELETE /api/v1/users/:id/purge - Hard delete (irreversible)
		r.Delete("/{id}/purge", handler.Purge)

		// GET /api/v1/users/:id/blacklist?type=publish - Access-control entries
		// GET /api/v1/users/:id/whitelist?type=subscribe
		r.Get("/{id}/{kind:blacklist|whitelist}", handler.ListEntries)

		// POST /api/v1/users/:id/entries - Add an access-control entry
		r.Post("/{id}/entries", handler.CreateEntry)
	})
}
