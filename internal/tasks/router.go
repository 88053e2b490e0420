package tasks

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// TaskStore is what the router needs from persistence.
type TaskStore interface {
	Create(ctx context.Context, title string, description *string) (int64, error)
	GetAll(ctx context.Context) ([]Task, error)
	GetByID(ctx context.Context, id int64) (Task, error)
	Update(ctx context.Context, id int64, fields Fields) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type handlerFunc func(rt *Router, ctx context.Context, rs *responder, w http.ResponseWriter, r *http.Request, id int64)

type route struct {
	method string
	withID bool
	handle handlerFunc
}

// routes in precedence order; the first method+shape match wins.
var routes = []route{
	{http.MethodGet, false, (*Router).list},
	{http.MethodGet, true, (*Router).get},
	{http.MethodPost, false, (*Router).create},
	{http.MethodPut, true, (*Router).update},
	{http.MethodDelete, true, (*Router).delete},
}

// Router maps /tasks requests onto the store. It keeps no per-request state.
type Router struct {
	store TaskStore
	log   zerolog.Logger
}

func NewRouter(store TaskStore, logger zerolog.Logger) *Router {
	return &Router{
		store: store,
		log:   logger.With().Str("component", "router").Logger(),
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = &rt.log
	}
	rs := newResponder(w, log)

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if p == http.ErrAbortHandler {
			panic(p)
		}
		log.Error().Interface("panic", p).Str("path", r.URL.Path).Msg("handler panicked")
		if !rs.Written() {
			rs.Error(http.StatusInternalServerError, msgInternal)
		}
	}()

	segments := splitPath(r.URL.Path)
	if len(segments) == 0 || len(segments) > 2 || segments[0] != "tasks" {
		rs.Error(http.StatusNotFound, msgRouteNotFound)
		return
	}
	withID := len(segments) == 2

	for _, rte := range routes {
		if rte.method != r.Method || rte.withID != withID {
			continue
		}

		var id int64
		if withID {
			parsed, err := strconv.ParseInt(segments[1], 10, 64)
			if err != nil {
				rs.Error(http.StatusBadRequest, msgInvalidID)
				return
			}
			id = parsed
		}

		// a request runs to completion even if the client hangs up
		ctx := context.WithoutCancel(r.Context())
		rte.handle(rt, ctx, rs, w, r, id)
		return
	}

	rs.Error(http.StatusNotFound, msgRouteNotFound)
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// -------------------------------
// HANDLERS
// -------------------------------

func (rt *Router) list(ctx context.Context, rs *responder, _ http.ResponseWriter, _ *http.Request, _ int64) {
	list, err := rt.store.GetAll(ctx)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}
	rs.JSON(http.StatusOK, encodeTasks(list))
}

func (rt *Router) get(ctx context.Context, rs *responder, _ http.ResponseWriter, _ *http.Request, id int64) {
	t, err := rt.store.GetByID(ctx, id)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}
	rs.JSON(http.StatusOK, encodeTask(t))
}

func (rt *Router) create(ctx context.Context, rs *responder, w http.ResponseWriter, r *http.Request, _ int64) {
	in, err := decodeInput(w, r)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}

	nt, err := PrepareCreate(in)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}

	id, err := rt.store.Create(ctx, nt.Title, nt.Description)
	if err != nil {
		rs.Error(http.StatusInternalServerError, msgSaveFailed)
		return
	}

	t, err := rt.store.GetByID(ctx, id)
	if err != nil {
		rs.Error(http.StatusInternalServerError, msgSaveFailed)
		return
	}

	rs.log.Info().Int64("task_id", id).Msg("task created")
	rs.JSON(http.StatusCreated, encodeTask(t))
}

func (rt *Router) update(ctx context.Context, rs *responder, w http.ResponseWriter, r *http.Request, id int64) {
	in, err := decodeInput(w, r)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}

	if _, err := rt.store.GetByID(ctx, id); err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}

	fields, err := PrepareUpdate(in)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}

	ok, err := rt.store.Update(ctx, id, fields)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}
	if !ok {
		// deleted between the existence check and the update
		rs.Error(http.StatusNotFound, msgTaskNotFound)
		return
	}

	t, err := rt.store.GetByID(ctx, id)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}
	rs.JSON(http.StatusOK, encodeTask(t))
}

func (rt *Router) delete(ctx context.Context, rs *responder, _ http.ResponseWriter, _ *http.Request, id int64) {
	ok, err := rt.store.Delete(ctx, id)
	if err != nil {
		rs.Error(statusFor(err, msgInternal))
		return
	}
	if !ok {
		rs.Error(http.StatusNotFound, msgTaskNotFound)
		return
	}
	rs.NoContent()
}
