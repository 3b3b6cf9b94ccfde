// Package server implements the C11 HTTP API (spec §4.11): the full
// feed/folder/post/source/script/scriptfolder CRUD and status surface a
// zapfrctl or Remote*Backend talks to.
//
// Grounded on the teacher's internal/application/server/server.go chi
// scaffolding (CORS, request-id, stampede caching, graceful Recoverer) and
// generalized from its single /feeds resource to the full endpoint table.
package server

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-chi/stampede"
	opentracing "github.com/opentracing/opentracing-go"

	"github.com/zapfr/engine/internal/agent"
	"github.com/zapfr/engine/internal/backend"
	"github.com/zapfr/engine/internal/refresh"
)

// Config defines webserver configuration.
type Config struct {
	Address        string `mapstructure:"address"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	APIVersion     string `mapstructure:"api_version"`
	// CertFile/KeyFile switch StartAndServe to HTTPS when both are set
	// (spec §6: "optionally TLS when both a certificate and a private key
	// are configured").
	CertFile string `mapstructure:"ssl_pubcert"`
	KeyFile  string `mapstructure:"ssl_privkey"`
	// Accounts is the basic-auth credential list (spec §6: "Basic-auth
	// credentials are a list of {login,password} records from config").
	// Empty means the API is unauthenticated.
	Accounts []Account `mapstructure:"accounts"`
}

// Account is one basic-auth credential pair.
type Account struct {
	Login    string `mapstructure:"login"`
	Password string `mapstructure:"password"`
}

// basicAuth rejects requests lacking valid Basic credentials from accounts.
// A request is let through unauthenticated only when accounts is empty.
func basicAuth(accounts []Account) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(accounts) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login, password, ok := r.BasicAuth()
			if ok {
				for _, a := range accounts {
					if a.Login == login && a.Password == password {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			ErrUnauthorized.Render(w, r)
		})
	}
}

// Backends bundles the C6 domain backends the handlers are written against.
// A caller wires these to Local* for the embedded store or to remote.* for
// a Source of type "remote" (spec §4.6).
type Backends struct {
	Feeds         backend.FeedBackend
	Folders       backend.FolderBackend
	Posts         backend.PostBackend
	Sources       backend.SourceBackend
	Scripts       backend.ScriptBackend
	ScriptFolders backend.ScriptFolderBackend
	Stats         backend.StatsBackend
	Logs          backend.LogBackend
}

// Server defines the HTTP application.
type Server struct {
	httpServer *http.Server
	handler    *Handler
	certFile   string
	keyFile    string
}

// New creates the server, wiring middleware and every C11 route.
func New(cfg Config, logger Logger, tracer opentracing.Tracer, backends Backends, pipeline *refresh.Pipeline, jobAgent *agent.Agent) *Server {
	h := NewHandler(logger, tracer, backends, pipeline, jobAgent, cfg.APIVersion)
	r := chi.NewRouter()
	s := &Server{
		httpServer: &http.Server{Addr: cfg.Address, Handler: r},
		handler:    h,
		certFile:   cfg.CertFile,
		keyFile:    cfg.KeyFile,
	}
	r.Use(middleware.RequestID)
	r.Use(middlewareLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(middleware.Timeout(time.Duration(cfg.RequestTimeout) * time.Second))

	r.Get("/healthz", h.healthCheck)
	r.Get("/about", h.about)

	// Everything else requires the configured basic-auth credentials, if
	// any are set (spec §6); /healthz and /about stay open for monitoring.
	r.Group(func(r chi.Router) {
		r.Use(basicAuth(cfg.Accounts))

		workDir, _ := os.Getwd()
		filesDir := http.Dir(filepath.Join(workDir, "swaggerui"))
		FileServer(r, "/doc", filesDir)

		// Requests coalescing/caching for read-heavy hot paths (spec doesn't
		// mandate this; kept from the teacher's stampede usage on /feeds).
		cachedList := stampede.Handler(512, 1*time.Second)

		r.Route("/feeds", func(r chi.Router) {
			r.Post("/", h.subscribeFeed)
			r.Route("/{feed_id}", func(r chi.Router) {
				r.Get("/", h.getFeed)
				r.Put("/", h.updateFeed)
				r.Delete("/", h.deleteFeed)
				r.Post("/move", h.moveFeed)
				r.Post("/refresh", h.refreshFeed)
				r.Post("/read", h.markFeedRead)
			})
		})
		r.Route("/folders", func(r chi.Router) {
			r.Post("/", h.createFolder)
			r.Route("/{folder_id}", func(r chi.Router) {
				r.With(cachedList).Get("/", h.getFolder)
				r.Get("/feeds", h.listFeedsByFolder)
				r.Put("/", h.updateFolder)
				r.Delete("/", h.deleteFolder)
				r.Post("/sort", h.sortFolder)
			})
		})
		r.Route("/posts", func(r chi.Router) {
			r.With(cachedList).Get("/", h.listPosts)
			r.Post("/read", h.markPostsRead)
			r.Route("/{post_id}", func(r chi.Router) {
				r.Get("/", h.getPost)
				r.Post("/flags", h.setPostFlag)
			})
		})
		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.listSources)
			r.Post("/", h.createSource)
			r.Route("/{source_id}", func(r chi.Router) {
				r.Get("/", h.getSource)
				r.Put("/", h.updateSource)
				r.Delete("/", h.deleteSource)
				r.Post("/read", h.markSourceRead)
				r.Get("/status", h.sourceStatus)
				r.Get("/feeds", h.listFeedsBySource)
				r.Get("/folders", h.listFoldersBySource)
				r.Get("/scripts", h.listScriptsBySource)
				r.Get("/scriptfolders", h.listScriptFoldersBySource)
			})
		})
		r.Route("/scripts", func(r chi.Router) {
			r.Post("/", h.createScript)
			r.Route("/{script_id}", func(r chi.Router) {
				r.Get("/", h.getScript)
				r.Put("/", h.updateScript)
				r.Delete("/", h.deleteScript)
			})
		})
		r.Route("/scriptfolders", func(r chi.Router) {
			r.Post("/", h.createScriptFolder)
			r.Route("/{scriptfolder_id}", func(r chi.Router) {
				r.Get("/", h.getScriptFolder)
				r.Put("/", h.updateScriptFolder)
				r.Delete("/", h.deleteScriptFolder)
				r.Post("/assign", h.assignPostsToScriptFolder)
				r.Post("/read", h.markScriptFolderRead)
			})
		})
		r.Route("/stats", func(r chi.Router) {
			r.Get("/unread", h.unreadCounts)
			r.Get("/flagcolors", h.usedFlagColors)
		})
		r.Route("/logs", func(r chi.Router) {
			r.Get("/", h.listLogs)
			r.Delete("/", h.clearLogs)
		})
		r.Post("/opml", h.importOPML)
		r.Get("/debug/feeds/{format}", h.dummyFeed)
	})

	return s
}

// StartAndServe configures routers and starts the http server, blocking
// until Shutdown is called. It serves HTTPS when both CertFile and KeyFile
// were configured, plaintext HTTP otherwise (spec §6).
func (s *Server) StartAndServe() {
	s.handler.logger.Info("Server is ready to serve on ", s.httpServer.Addr)
	var err error
	if s.certFile != "" && s.keyFile != "" {
		err = s.httpServer.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		s.handler.logger.Fatal(fmt.Sprint("Server startup failed: ", err))
	}
}

// Serve runs the http server on a pre-opened listener, blocking until
// Shutdown is called. Used when the caller must bind a privileged port
// before dropping root (spec §6 process lifecycle).
func (s *Server) Serve(l net.Listener) {
	s.handler.logger.Info("Server is ready to serve on ", l.Addr().String())
	var err error
	if s.certFile != "" && s.keyFile != "" {
		err = s.httpServer.ServeTLS(l, s.certFile, s.keyFile)
	} else {
		err = s.httpServer.Serve(l)
	}
	if err != nil && err != http.ErrServerClosed {
		s.handler.logger.Fatal(fmt.Sprint("Server startup failed: ", err))
	}
}

// Shutdown stops the http server immediately, closing active connections
// without waiting for in-flight requests to finish.
func (s *Server) Shutdown() error {
	return s.httpServer.Close()
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem. Used for Swagger-UI and swagger.json files.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}
	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"
	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, r)
	})
}
