package delivery

import (
	"net/http"

	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(
	r chi.Router,
	hAuth *AuthHandler,
	auth ports.AuthService,
	hNormalize *NormalizeHandler,
	hImages *ImagesHandler,
	metrics http.Handler,
) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		// login
		r.Post("/login", hAuth.Login)

		// image path migration
		r.Post("/admin/update-image-urls", hNormalize.UpdateImageURLs)

		// project gallery, needs postgres and a storage bucket
		if hImages != nil {
			r.Get("/projects/{id}/images", hImages.List)
			r.Post("/projects/{id}/images", hImages.Upload)
			r.Put("/projects/{id}/images/{imageID}/featured", hImages.SetFeatured)
			r.Delete("/projects/{id}/images/{imageID}", hImages.Delete)
		}
	})
}
