package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"donortrack/internal/http/handlers"
	"donortrack/internal/middleware"
)

// Options carries the cross-cutting settings of the router.
type Options struct {
	AllowedOrigins []string
	// SessionRateLimit bounds password attempts per client IP and minute.
	SessionRateLimit int
	DefaultLocale    string
	CountryLookup    middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(app.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.Session(app.SessionSecret),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", app.Metrics())
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/events", func(r chi.Router) {
		r.Get("/", app.ListEvents)
		r.Post("/", app.CreateEvent)

		r.Route("/{eventID}", func(r chi.Router) {
			r.With(middleware.RateLimit(opts.SessionRateLimit, time.Minute)).Post("/session", app.OpenSession)

			r.Get("/", app.GetEvent)
			r.Put("/", app.UpdateEvent)
			r.Delete("/", app.DeleteEvent)

			r.Route("/fields", func(r chi.Router) {
				r.Get("/", app.ListFields)
				r.Post("/", app.AddField)
				r.Patch("/{fieldID}", app.UpdateField)
				r.Delete("/{fieldID}", app.DeleteField)
				r.Post("/{fieldID}/move", app.MoveField)
				r.Post("/{fieldID}/options", app.AddOption)
				r.Put("/{fieldID}/options/{index}", app.EditOption)
				r.Delete("/{fieldID}/options/{index}", app.DeleteOption)
			})

			r.Route("/donations", func(r chi.Router) {
				r.Get("/", app.ListDonations)
				r.Post("/", app.CreateDonation)
				r.Get("/{donationID}", app.GetDonation)
				r.Put("/{donationID}", app.UpdateDonation)
				r.Delete("/{donationID}", app.DeleteDonation)
			})

			r.Get("/insights", app.Insights)
			r.Get("/table", app.Table)
			r.Get("/export", app.Export)
			r.Get("/stream", app.Stream)
		})
	})

	return r
}
