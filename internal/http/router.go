package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires the resource handlers into the router. Nil handlers
// leave their routes unregistered.
type RouterConfig struct {
	Bookings  *BookingHandler
	Recurring *RecurringHandler
	Rooms     *RoomHandler
	Settings  *SettingsHandler
}

// NewRouter builds the HTTP routing table.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Bookings != nil {
		mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Bookings.Create(w, r)
		})
		mux.HandleFunc("/bookings/history", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.History(w, r)
		})
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/bookings/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithPathID(r.Context(), id))
			switch r.Method {
			case http.MethodPatch:
				cfg.Bookings.Edit(w, r)
			case http.MethodDelete:
				cfg.Bookings.Cancel(w, r)
			default:
				methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	if cfg.Recurring != nil {
		mux.HandleFunc("/recurring-rules", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Recurring.Create(w, r)
		})
		mux.HandleFunc("/recurring-rules/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/recurring-rules/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			segments := strings.Split(rest, "/")
			switch {
			case len(segments) == 1:
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				r = r.WithContext(ContextWithPathID(r.Context(), segments[0]))
				cfg.Recurring.CancelSeries(w, r)
			case len(segments) == 3 && segments[1] == "occurrences":
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Recurring.CancelOccurrence(w, r, segments[0], segments[2])
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Rooms != nil {
		mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, r)
			case http.MethodPost:
				cfg.Rooms.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/rooms/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			segments := strings.Split(rest, "/")
			r = r.WithContext(ContextWithPathID(r.Context(), segments[0]))
			switch {
			case len(segments) == 1:
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Rooms.Update(w, r)
			case len(segments) == 2 && segments[1] == "toggle":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Rooms.Toggle(w, r)
			case len(segments) == 2 && segments[1] == "occurrences":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				if cfg.Bookings == nil {
					http.NotFound(w, r)
					return
				}
				cfg.Bookings.ListOccurrences(w, r)
			case len(segments) == 2 && segments[1] == "blocked-ranges":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Rooms.ListBlockedRanges(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Rooms != nil {
		mux.HandleFunc("/blocked-ranges", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Rooms.CreateBlockedRange(w, r)
		})
		mux.HandleFunc("/blocked-ranges/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/blocked-ranges/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			r = r.WithContext(ContextWithPathID(r.Context(), id))
			cfg.Rooms.DeleteBlockedRange(w, r)
		})
	}

	if cfg.Settings != nil {
		mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Settings.Get(w, r)
			case http.MethodPut:
				cfg.Settings.Update(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
	}

	return mux
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
