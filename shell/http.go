package shell

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/omnibrowser/redix/privacy"
	"github.com/omnibrowser/redix/shield"
	"github.com/omnibrowser/redix/store"
	"github.com/omnibrowser/redix/tabs"
)

// Router builds the /v1 HTTP API over a Shell.
func Router(s *Shell) chi.Router {
	r := chi.NewRouter()
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxJSONBody(16 << 20))
	r.Use(shield.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/tabs", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, s.ListTabs())
			})
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					URL     string `json:"url"`
					AppMode string `json:"appMode"`
				}
				if !decodeBody(w, r, &req) {
					return
				}
				tab, err := s.CreateTab(r.Context(), req.URL, req.AppMode)
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, tab)
			})
			r.Route("/{tabID}", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					tab, err := s.GetTab(chi.URLParam(r, "tabID"))
					if err != nil {
						writeError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, tab)
				})
				r.Patch("/", func(w http.ResponseWriter, r *http.Request) {
					var req struct {
						URL      *string `json:"url"`
						Title    *string `json:"title"`
						Favicon  *string `json:"favicon"`
						Pinned   *bool   `json:"pinned"`
						Sleeping *bool   `json:"sleeping"`
					}
					if !decodeBody(w, r, &req) {
						return
					}
					tab, err := s.UpdateTab(chi.URLParam(r, "tabID"), tabs.Update{
						URL: req.URL, Title: req.Title, Favicon: req.Favicon,
						Pinned: req.Pinned, Sleeping: req.Sleeping,
					})
					if err != nil {
						writeError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, tab)
				})
				r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
					if err := s.CloseTab(r.Context(), chi.URLParam(r, "tabID")); err != nil {
						writeError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
				})
				r.Post("/activate", func(w http.ResponseWriter, r *http.Request) {
					if err := s.ActivateTab(chi.URLParam(r, "tabID")); err != nil {
						writeError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
				})
				r.Post("/sleep", func(w http.ResponseWriter, r *http.Request) {
					var req struct {
						State json.RawMessage `json:"state"`
					}
					if !decodeBody(w, r, &req) {
						return
					}
					res, err := s.SleepTab(r.Context(), chi.URLParam(r, "tabID"), req.State)
					if err != nil {
						writeError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, res)
				})
				r.Post("/wake", func(w http.ResponseWriter, r *http.Request) {
					res, err := s.WakeTab(r.Context(), chi.URLParam(r, "tabID"))
					if err != nil {
						writeError(w, err)
						return
					}
					if res == nil {
						writeJSON(w, http.StatusOK, map[string]any{"snapshot": nil})
						return
					}
					writeJSON(w, http.StatusOK, map[string]any{"snapshot": res})
				})
				r.Post("/crash", func(w http.ResponseWriter, r *http.Request) {
					safeMode, err := s.RecordTabCrash(r.Context(), chi.URLParam(r, "tabID"))
					if err != nil {
						writeError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, map[string]bool{"safeMode": safeMode})
				})
				r.Get("/tor", func(w http.ResponseWriter, r *http.Request) {
					status, ok := s.TorStatus(chi.URLParam(r, "tabID"))
					if !ok {
						writeJSON(w, http.StatusOK, map[string]bool{"running": false})
						return
					}
					writeJSON(w, http.StatusOK, status)
				})
			})
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, s.SnapshotStats())
			})
			r.Delete("/", func(w http.ResponseWriter, _ *http.Request) {
				s.ClearSnapshots()
				writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
			})
			r.Post("/{tabID}", func(w http.ResponseWriter, r *http.Request) {
				var raw json.RawMessage
				if !decodeBody(w, r, &raw) {
					return
				}
				res, err := s.CaptureSnapshot(r.Context(), chi.URLParam(r, "tabID"), raw)
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, res)
			})
			r.Get("/{tabID}", func(w http.ResponseWriter, r *http.Request) {
				res := s.RestoreSnapshot(chi.URLParam(r, "tabID"))
				if res == nil {
					writeJSON(w, http.StatusNotFound, errorBody("snapshot_not_found", "no snapshot for tab"))
					return
				}
				writeJSON(w, http.StatusOK, res)
			})
		})

		r.Route("/context/{key}", func(r chi.Router) {
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				var value json.RawMessage
				if !decodeBody(w, r, &value) {
					return
				}
				if err := s.SaveTabContext(chi.URLParam(r, "key"), value); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
			})
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				rec := s.TabContext(chi.URLParam(r, "key"))
				if rec == nil {
					writeJSON(w, http.StatusNotFound, errorBody("context_not_found", "no context for key"))
					return
				}
				writeJSON(w, http.StatusOK, rec)
			})
		})

		r.Route("/privacy", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, s.PrivacyPolicy())
			})
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Mode string `json:"mode"`
				}
				if !decodeBody(w, r, &req) {
					return
				}
				policy, err := s.SetPrivacyMode(r.Context(), req.Mode)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, errorBody("invalid_mode", err.Error()))
					return
				}
				writeJSON(w, http.StatusOK, policy)
			})
			r.Post("/violation", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Violation string `json:"violation"`
				}
				if !decodeBody(w, r, &req) {
					return
				}
				v, err := privacy.ParseViolation(req.Violation)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, errorBody("invalid_violation", err.Error()))
					return
				}
				action := s.ReportViolation(r.Context(), v)
				writeJSON(w, http.StatusOK, map[string]any{
					"action": action,
					"policy": s.PrivacyPolicy(),
				})
			})
		})

		r.Route("/pages", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var p store.Page
				if !decodeBody(w, r, &p) {
					return
				}
				if err := s.CachePage(r.Context(), &p); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, p)
			})
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				if url := r.URL.Query().Get("url"); url != "" {
					p, err := s.CachedPage(r.Context(), url)
					if err != nil {
						writeError(w, err)
						return
					}
					if p == nil {
						writeJSON(w, http.StatusNotFound, errorBody("page_not_found", "page not cached"))
						return
					}
					writeJSON(w, http.StatusOK, p)
					return
				}
				pages, err := s.SearchPages(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, pages)
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if err := s.ClearPageCache(r.Context()); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					URL   string `json:"url"`
					Title string `json:"title"`
				}
				if !decodeBody(w, r, &req) {
					return
				}
				if err := s.RecordVisit(r.Context(), req.URL, req.Title); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
			})
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				var entries []*store.HistoryEntry
				var err error
				if q := r.URL.Query().Get("q"); q != "" {
					entries, err = s.SearchHistory(r.Context(), q, queryLimit(r))
				} else {
					entries, err = s.History(r.Context(), queryLimit(r))
				}
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, entries)
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if url := r.URL.Query().Get("url"); url != "" {
					if err := s.DeleteHistoryURL(r.Context(), url); err != nil {
						writeError(w, err)
						return
					}
				} else if err := s.ClearHistory(r.Context()); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
			})
		})

		r.Route("/bookmarks", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var b store.Bookmark
				if !decodeBody(w, r, &b) {
					return
				}
				if err := s.SaveBookmark(r.Context(), &b); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, b)
			})
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				list, err := s.Bookmarks(r.Context())
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, list)
			})
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				if err := s.DeleteBookmark(r.Context(), chi.URLParam(r, "id")); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
			})
		})

		r.Route("/downloads", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var d store.Download
				if !decodeBody(w, r, &d) {
					return
				}
				if err := s.SaveDownload(r.Context(), &d); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, d)
			})
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				list, err := s.Downloads(r.Context(), queryLimit(r))
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, list)
			})
			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				d, err := s.Download(r.Context(), chi.URLParam(r, "id"))
				if err != nil {
					writeError(w, err)
					return
				}
				if d == nil {
					writeJSON(w, http.StatusNotFound, errorBody("download_not_found", "unknown download"))
					return
				}
				writeJSON(w, http.StatusOK, d)
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					ActiveTabID string `json:"active_tab_id"`
					TabsJSON    string `json:"tabs_json"`
				}
				if !decodeBody(w, r, &req) {
					return
				}
				if err := s.SaveSession(r.Context(), req.ActiveTabID, req.TabsJSON); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
			})
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				sess, err := s.LoadSession(r.Context())
				if err != nil {
					writeError(w, err)
					return
				}
				if sess == nil {
					writeJSON(w, http.StatusNotFound, errorBody("session_not_found", "no saved session"))
					return
				}
				writeJSON(w, http.StatusOK, sess)
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if err := s.ClearSession(r.Context()); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, s.Settings())
			})
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				var next Settings
				if !decodeBody(w, r, &next) {
					return
				}
				if err := s.UpdateSettings(r.Context(), next); err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, next)
			})
		})

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			events, err := s.RecentEvents(r.Context(), queryLimit(r))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, events)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, HTTPStatus(err), errorBody(ErrorCode(err), err.Error()))
}

func errorBody(code, message string) map[string]any {
	return map[string]any{"error": map[string]string{"code": code, "message": message}}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_payload", err.Error()))
		return false
	}
	return true
}

func queryLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if n <= 0 {
		n = 50
	}
	return n
}
