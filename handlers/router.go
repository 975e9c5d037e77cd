// microboard/handlers/router.go
package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRouter wires every route. Page routes are read-only; mutating routes
// go through the rate limiter.
func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)
	mux.Use(SessionMiddleware)
	mux.Use(ManageMiddleware(app))

	limited := RateLimitMiddleware(app)

	mux.Get("/", MakeHandler(app, HandleHome))

	// Manage surface
	mux.Route("/manage", func(r chi.Router) {
		r.Get("/", MakeHandler(app, HandleManageHome))
		r.Post("/login", MakeHandler(app, HandleLogin))
		r.Get("/logout", MakeHandler(app, HandleLogout))
		r.Post("/rebuild", MakeHandler(app, HandleRebuild))
		r.Post("/backup", MakeHandler(app, HandleBackup))
		r.Post("/import", MakeHandler(app, HandleImport))
	})

	// Board surface
	mux.Route("/{boardID}", func(r chi.Router) {
		r.Get("/", MakeHandler(app, HandleBoardPage))
		r.Get("/hidden", MakeHandler(app, HandleHiddenPage))
		r.Get("/catalog", MakeHandler(app, HandleCatalogPage))
		r.Get("/{threadID}", MakeHandler(app, HandleThreadPage))
		r.Get("/{threadID}/{postID}", MakeHandler(app, HandlePostPreview))

		r.With(limited).Post("/", MakeHandler(app, HandleNewThread))
		r.With(limited).Post("/{threadID}", MakeHandler(app, HandleNewReply))
		r.Post("/delete", MakeHandler(app, HandleDelete))
		r.With(limited).Post("/{postID}/report", MakeHandler(app, HandleReport))
		r.Post("/{postID}/hide", MakeHandler(app, HandleHideToggle))
	})

	return mux
}
