// Command addrspace-gateway runs a small diagnostics HTTP surface over an
// in-process address space (SPEC_FULL supplemental feature 5): health,
// node/reference counts, and a read-only per-node JSON dump. It is
// explicitly not the OPC UA Browse/Read/Write services — those stay out
// of scope per spec.md §1.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opcfoundry/addrspace/internal/bootstrap"
	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/infra/auditlog"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
	"github.com/opcfoundry/addrspace/internal/service/addressspace"
)

// requestID stamps every request with a correlation id, mirroring the
// teacher's ZapLogger middleware but adding the id google/uuid generates
// (the teacher has no request-id middleware of its own; this is the
// pack's common pattern for it).
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// zapLogger logs one line per request at a level chosen by response status,
// adapted from the teacher's cmd/zmux-server/main.go ZapLogger.
func zapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		respStatus := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joined := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", respStatus),
			zap.String("request_id", c.GetString("request_id")),
			zap.Duration("latency", latency),
		}
		if joined != nil {
			fields = append(fields, zap.Error(joined))
		}

		switch {
		case respStatus >= 500:
			log.Error("request", fields...)
		case respStatus >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func main() {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("main")

	store := nodestore.New(log)
	if err := bootstrap.New(store); err != nil {
		log.Fatal("bootstrap seed failed", zap.Error(err))
	}

	audit := auditlog.Sink(auditlog.Nop{})
	if addr := os.Getenv("ADDRSPACE_REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		audit = auditlog.NewRedisSink(rdb, log)
	}

	as := addressspace.New(store, addressspace.Options{
		Namespaces: defaultNamespaces(),
		Audit:      audit,
		Log:        log,
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())
	r.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	}))
	if os.Getenv("ENV") == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(requestID())
	r.Use(zapLogger(log))

	registerRoutes(r, as)

	addr := os.Getenv("ADDRSPACE_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Info("listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func defaultNamespaces() *nodeid.NamespaceTable {
	t := nodeid.NewNamespaceTable()
	t.Append("http://opcfoundry.org/UA/addrspace/")
	return t
}

func registerRoutes(r *gin.Engine, as *addressspace.AddressSpace) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/v1/stats", func(c *gin.Context) {
		counts := map[string]int{}
		refCounts := map[string]int{}
		for _, id := range as.Store().All() {
			n, ok := as.Store().Get(id)
			if !ok {
				continue
			}
			counts[n.Class.String()]++
			refCounts[n.Class.String()] += len(n.References)
		}
		c.JSON(http.StatusOK, gin.H{
			"total_nodes":         as.Store().Count(),
			"by_class":            counts,
			"references_by_class": refCounts,
			"namespaces":          as.Namespaces().Count(),
		})
	})

	r.GET("/api/v1/nodes/:id", func(c *gin.Context) {
		id, err := parseNodeIdParam(c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		n, ok := as.Store().GetCopy(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": status.ErrNodeIdUnknown.Error()})
			return
		}
		c.JSON(http.StatusOK, dumpNode(n))
	})
}

// parseNodeIdParam accepts the "ns=<index>;i=<numeric>" form NodeId.String
// produces — enough for an operator to paste a value straight out of a log
// line back into this endpoint.
func parseNodeIdParam(raw string) (nodeid.NodeId, error) {
	var ns uint16
	var numeric uint32
	if _, err := fmt.Sscanf(raw, "ns=%d;i=%d", &ns, &numeric); err != nil {
		return nodeid.NodeId{}, fmt.Errorf("id %q: expected ns=<index>;i=<numeric>: %w", raw, err)
	}
	return nodeid.Numeric(ns, numeric), nil
}

// dumpNode projects a node's id, class, browse name, display-name text and
// reference count into a JSON-friendly map, plus dataType, valueRank and
// inline value for Variable/VariableType nodes; other class-specific fields
// are not included. This is a diagnostics dump, not the OPC UA Read
// service's AttributeId-addressed model.
func dumpNode(n *node.Node) gin.H {
	out := gin.H{
		"node_id":      n.NodeId.String(),
		"class":        n.Class.String(),
		"browse_name":  n.BrowseName.String(),
		"display_name": n.DisplayName.Text,
		"reference_count": len(n.References),
	}
	if vl, ok := n.VariableLike(); ok {
		out["data_type"] = vl.DataType.String()
		out["value_rank"] = vl.ValueRank
		if vl.Value != nil {
			out["value"] = vl.Value.Value.Value
		}
	}
	return out
}
