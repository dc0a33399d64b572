// Package webapp serves the browser application's routing table. Every
// route renders the same application shell; the client picks the view named
// in the shell and receives the route parameters as its inputs.
package webapp

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed views/shell.html
var views embed.FS

var shell = template.Must(template.ParseFS(views, "views/shell.html"))

// Route maps a history-mode path pattern to a view. Path segments starting
// with ':' capture parameters.
type Route struct {
	Path  string
	Name  string
	View  string
	Props bool
}

// Match is a resolved route. Props is nil unless the route forwards its
// parameters to the view.
type Match struct {
	Route  Route
	Params map[string]string
	Props  map[string]string
}

// DefaultRoutes is the application's routing table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: "CriteriaForm", View: "CriteriaForm", Props: true},
	}
}

type Option func(*Router)

// WithAssets sets the client bundle URL referenced by the shell and, when
// dir is not empty, serves the built bundle from dir under <base>/assets.
func WithAssets(url, dir string) Option {
	return func(r *Router) {
		r.assetURL = url
		r.distDir = dir
	}
}

func WithTitle(title string) Option {
	return func(r *Router) { r.title = title }
}

type Router struct {
	base     string
	routes   []Route
	segments [][]string
	assetURL string
	distDir  string
	title    string
}

// NewRouter validates routes and joins them with basePath.
func NewRouter(basePath string, routes []Route, opts ...Option) (*Router, error) {
	base, err := cleanBase(basePath)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("webapp: no routes")
	}
	r := &Router{base: base, title: "Prospect Bingo"}
	paths := map[string]bool{}
	names := map[string]bool{}
	for _, rt := range routes {
		if !strings.HasPrefix(rt.Path, "/") {
			return nil, fmt.Errorf("webapp: route %q: path must start with /", rt.Path)
		}
		if strings.ContainsAny(rt.Path, "#?*") {
			return nil, fmt.Errorf("webapp: route %q: unsupported character in path", rt.Path)
		}
		if rt.Name == "" || rt.View == "" {
			return nil, fmt.Errorf("webapp: route %q: name and view are required", rt.Path)
		}
		segs := split(rt.Path)
		key := patternKey(segs)
		if paths[key] {
			return nil, fmt.Errorf("webapp: duplicate route path %q", rt.Path)
		}
		if names[rt.Name] {
			return nil, fmt.Errorf("webapp: duplicate route name %q", rt.Name)
		}
		paths[key] = true
		names[rt.Name] = true
		r.routes = append(r.routes, rt)
		r.segments = append(r.segments, segs)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Router) BasePath() string { return r.base }

func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Resolve matches an absolute request path, including the base path.
func (r *Router) Resolve(path string) (Match, bool) {
	rel, ok := r.strip(path)
	if !ok {
		return Match{}, false
	}
	got := split(rel)
	for i, segs := range r.segments {
		params, ok := matchSegments(segs, got)
		if !ok {
			continue
		}
		m := Match{Route: r.routes[i], Params: params}
		if m.Route.Props {
			m.Props = params
		}
		return m, true
	}
	return Match{}, false
}

// Register mounts every route on engine and answers unmatched paths with 404.
func (r *Router) Register(engine *gin.Engine) {
	if r.distDir != "" {
		engine.Static(r.join("/assets"), r.distDir)
	}
	for _, rt := range r.routes {
		engine.GET(r.join(rt.Path), r.serve)
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

func (r *Router) serve(c *gin.Context) {
	m, ok := r.Resolve(c.Request.URL.Path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		return
	}
	props := m.Props
	if props == nil {
		props = map[string]string{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: shell,
		Name:     "shell.html",
		Data: gin.H{
			"Title":    r.title,
			"Base":     r.join("/"),
			"AssetURL": r.assetURL,
			"Name":     m.Route.Name,
			"View":     m.Route.View,
			"Props":    string(raw),
		},
	})
}

func (r *Router) join(p string) string {
	if r.base == "/" {
		return p
	}
	if p == "/" {
		return r.base + "/"
	}
	return r.base + p
}

func (r *Router) strip(path string) (string, bool) {
	if r.base == "/" {
		return path, strings.HasPrefix(path, "/")
	}
	if path == r.base {
		return "/", true
	}
	rest, ok := strings.CutPrefix(path, r.base)
	if !ok || !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest, true
}

func cleanBase(p string) (string, error) {
	if p == "" || p == "/" {
		return "/", nil
	}
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("webapp: base path %q must start with /", p)
	}
	if strings.ContainsAny(p, ":*#?") {
		return "", fmt.Errorf("webapp: base path %q: unsupported character", p)
	}
	return strings.TrimRight(p, "/"), nil
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// patternKey normalises parameter names so /a/:x and /a/:y collide.
func patternKey(segs []string) string {
	out := make([]string, len(segs))
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			s = ":"
		}
		out[i] = s
	}
	return "/" + strings.Join(out, "/")
}

func matchSegments(pattern, got []string) (map[string]string, bool) {
	if len(pattern) != len(got) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range pattern {
		if name, ok := strings.CutPrefix(s, ":"); ok {
			if got[i] == "" {
				return nil, false
			}
			params[name] = got[i]
			continue
		}
		if s != got[i] {
			return nil, false
		}
	}
	return params, true
}
