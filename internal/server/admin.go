package server

import (
	"net/http"
	"time"

	"github.com/danmuck/edgewire/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const serviceName = "edgewire"

var defaultCorsOrigins = []string{"http://localhost:3000"}

type fieldView struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Width int    `json:"width"`
	Count int    `json:"count"`
}

type schemaView struct {
	Name   string      `json:"name"`
	Code   *uint16     `json:"code,omitempty"`
	Size   int         `json:"size"`
	Fields []fieldView `json:"fields"`
}

// AdminRouter builds the read-only admin HTTP surface.
func (s *Service) AdminRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.HTTPMiddleware(log.Logger))

	origins := normalizeOrigins(s.cfg.CorsOrigins)
	if len(origins) == 0 {
		origins = defaultCorsOrigins
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.startedAt).String(),
			"service": serviceName,
		})
	})

	r.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		ready := s.Ready()
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":              ready,
			"active_connections": s.ActiveConnections(),
			"service":            serviceName,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/schemas", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"schemas": s.schemaViews()})
	})

	r.GET("/schemas/:name", func(c *gin.Context) {
		view, ok := s.schemaView(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown schema: " + c.Param("name")})
			return
		}
		c.JSON(http.StatusOK, view)
	})

	return r
}

func (s *Service) schemaViews() []schemaView {
	names := s.reg.Names()
	out := make([]schemaView, 0, len(names))
	for _, name := range names {
		if view, ok := s.schemaView(name); ok {
			out = append(out, view)
		}
	}
	return out
}

func (s *Service) schemaView(name string) (schemaView, bool) {
	sc, err := s.reg.Schema(name)
	if err != nil {
		return schemaView{}, false
	}
	view := schemaView{
		Name:   sc.Name,
		Size:   sc.Size(),
		Fields: make([]fieldView, 0, len(sc.Fields)),
	}
	if code, ok := s.reg.Code(name); ok {
		view.Code = &code
	}
	for _, f := range sc.Fields {
		view.Fields = append(view.Fields, fieldView{
			Name:  f.Name,
			Kind:  f.Kind().String(),
			Width: f.Width,
			Count: f.Count,
		})
	}
	return view, true
}
