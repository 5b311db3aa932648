package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/processor"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/logger"
	"github.com/gzlj/hadoop-blueprint/pkg/module"
)

const (
	requestIdKey    = "requestId"
	requestIdHeader = "X-Request-Id"

	OperationExport             = "export"
	OperationResolve            = "resolve"
	OperationRequiredHostGroups = "required_hostgroups"
)

// Stack is the stack definition the handlers resolve against.
type Stack interface {
	topology.Stack
	Name() string
	Version() string
}

type Handler struct {
	stack Stack
	log   *zap.SugaredLogger
}

func New(st Stack) *Handler {
	return &Handler{stack: st, log: logger.For(logger.ComponentHandler)}
}

// RegistryApis mounts the blueprint routes on r.
func RegistryApis(r gin.IRoutes, h *Handler, enableMetric bool) {
	r.Use(RequestId())
	r.GET("/status", h.HandleStatus)
	r.POST("/blueprints/export", h.HandleExport)
	r.POST("/clusters/resolve", h.HandleResolve)
	r.POST("/clusters/required-hostgroups", h.HandleRequiredHostGroups)
	if enableMetric {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// RequestId tags every request with a fresh id, echoed in the X-Request-Id header.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIdHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIdKey, id)
		c.Header(requestIdHeader, id)
		c.Next()
	}
}

func respond(c *gin.Context, code int, msg string, data interface{}) {
	response := global.BuildResponse(code, msg, data)
	response.RequestId = c.GetString(requestIdKey)
	c.JSON(code, response)
}

// statusOf maps resolution errors onto HTTP codes: anything the caller can fix is a 400.
func statusOf(err error) int {
	if processor.IsPlacementError(err) || errors.Is(err, processor.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) HandleStatus(c *gin.Context) {
	respond(c, http.StatusOK, "ok", gin.H{
		"stack":   h.stack.Name(),
		"version": h.stack.Version(),
	})
}

func (h *Handler) bind(c *gin.Context, operation string) (*module.ClusterRequest, bool) {
	var req module.ClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infow("Rejected cluster document", "requestId", c.GetString(requestIdKey), "operation", operation, "error", err)
		observe(operation, http.StatusBadRequest, time.Now())
		respond(c, http.StatusBadRequest, "input is not valid: "+err.Error(), nil)
		return nil, false
	}
	return &req, true
}

func (h *Handler) fail(c *gin.Context, operation string, start time.Time, err error) {
	code := statusOf(err)
	observe(operation, code, start)
	recordError(err)
	if code == http.StatusInternalServerError {
		h.log.Errorw("Blueprint operation failed", "requestId", c.GetString(requestIdKey), "operation", operation, "error", err)
	} else {
		h.log.Infow("Blueprint operation rejected", "requestId", c.GetString(requestIdKey), "operation", operation, "error", err)
	}
	respond(c, code, err.Error(), nil)
}

// HandleExport turns a deployed cluster document into a reusable blueprint.
func (h *Handler) HandleExport(c *gin.Context) {
	start := time.Now()
	req, ok := h.bind(c, OperationExport)
	if !ok {
		return
	}
	res, err := processor.Export(req, h.stack)
	if err != nil {
		h.fail(c, OperationExport, start, err)
		return
	}
	observe(OperationExport, http.StatusOK, start)
	h.log.Infow("Exported blueprint", "requestId", c.GetString(requestIdKey), "clusterId", req.ClusterId, "hostGroups", len(res.HostGroups))
	respond(c, http.StatusOK, "ok", res)
}

// HandleResolve resolves a blueprint and its host group mapping into concrete cluster configuration.
func (h *Handler) HandleResolve(c *gin.Context) {
	start := time.Now()
	req, ok := h.bind(c, OperationResolve)
	if !ok {
		return
	}
	res, err := processor.Resolve(req, h.stack)
	if err != nil {
		h.fail(c, OperationResolve, start, err)
		return
	}
	observe(OperationResolve, http.StatusOK, start)
	updatedConfigTypes.Add(float64(len(res.UpdatedConfigTypes)))
	h.log.Infow("Resolved cluster configuration", "requestId", c.GetString(requestIdKey), "clusterId", req.ClusterId, "updatedConfigTypes", res.UpdatedConfigTypes)
	respond(c, http.StatusOK, "ok", res)
}

func (h *Handler) HandleRequiredHostGroups(c *gin.Context) {
	start := time.Now()
	req, ok := h.bind(c, OperationRequiredHostGroups)
	if !ok {
		return
	}
	res, err := processor.RequiredHostGroups(req, h.stack)
	if err != nil {
		h.fail(c, OperationRequiredHostGroups, start, err)
		return
	}
	observe(OperationRequiredHostGroups, http.StatusOK, start)
	respond(c, http.StatusOK, "ok", res)
}
