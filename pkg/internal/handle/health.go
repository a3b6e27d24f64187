package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/papervault/pkg/context"
)

const timeout = 2 * time.Second

// 组件状态.
const (
	statusOK        = "ok"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// ComponentHealth 单个组件的检查结果.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type checker struct {
	name string
	// optional 为 true 时未初始化视为 disabled
	optional bool
	check    func(ctx context.Context) (configured bool, err error)
}

var checkers = []checker{
	{name: "db", check: func(ctx context.Context) (bool, error) {
		dbc := ctxPkg.GetDBClient(ctx)
		if dbc == nil || dbc.DB == nil {
			return false, nil
		}

		return true, dbc.HealthCheck(ctx)
	}},
	{name: "s3", check: func(ctx context.Context) (bool, error) {
		s3c := ctxPkg.GetS3Client(ctx)
		if s3c == nil || s3c.Client == nil {
			return false, nil
		}

		return true, s3c.HealthCheck(ctx)
	}},
	{name: "kv", check: func(ctx context.Context) (bool, error) {
		kvc := ctxPkg.GetKVClient(ctx)
		if kvc == nil || kvc.KVStore == nil {
			return false, nil
		}

		return true, kvc.HealthCheck(ctx)
	}},
	{name: "mq", optional: true, check: func(ctx context.Context) (bool, error) {
		mqc := ctxPkg.GetMQClient(ctx)
		if mqc == nil {
			return false, nil
		}

		return true, mqc.HealthCheck(ctx)
	}},
}

func (ck checker) run(ctx context.Context) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := ComponentHealth{Component: ck.name, Status: statusOK}

	configured, err := ck.check(ctx)

	switch {
	case !configured && ck.optional:
		res.Status = statusDisabled
	case !configured:
		res.Status, res.Error = statusUnhealthy, ck.name+" client not initialized"
	case err != nil:
		res.Status, res.Error = statusUnhealthy, err.Error()
	}

	return res
}

func respond(c *gin.Context, results ...ComponentHealth) {
	status := http.StatusOK

	for _, r := range results {
		if r.Status == statusUnhealthy {
			status = http.StatusServiceUnavailable
		}
	}

	if len(results) == 1 {
		c.JSON(status, results[0])
		return
	}

	overall := statusOK
	if status != http.StatusOK {
		overall = statusUnhealthy
	}

	c.JSON(status, gin.H{"status": overall, "components": results})
}

func healthOf(name string) gin.HandlerFunc {
	for _, ck := range checkers {
		if ck.name == name {
			return func(c *gin.Context) {
				respond(c, ck.run(c.Request.Context()))
			}
		}
	}

	panic("unknown health component " + name)
}

// Health 汇总所有组件，任一必需组件异常返回 503.
//
//	@Summary		健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		503	{object}	map[string]any
//	@Router			/api/health [get]
func Health(c *gin.Context) {
	results := make([]ComponentHealth, 0, len(checkers))
	for _, ck := range checkers {
		results = append(results, ck.run(c.Request.Context()))
	}

	respond(c, results...)
}

// HealthDB 数据库健康检查.
//
//	@Summary		数据库健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	ComponentHealth
//	@Failure		503	{object}	ComponentHealth
//	@Router			/api/health/db [get]
func HealthDB(c *gin.Context) { healthOf("db")(c) }

// HealthS3 对象存储健康检查.
//
//	@Summary		对象存储健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	ComponentHealth
//	@Failure		503	{object}	ComponentHealth
//	@Router			/api/health/s3 [get]
func HealthS3(c *gin.Context) { healthOf("s3")(c) }

// HealthKV KV 健康检查，写入并读取探测键.
//
//	@Summary		KV 健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	ComponentHealth
//	@Failure		503	{object}	ComponentHealth
//	@Router			/api/health/kv [get]
func HealthKV(c *gin.Context) { healthOf("kv")(c) }

// HealthMQ 消息队列健康检查，未启用事件时为 disabled.
//
//	@Summary		消息队列健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	ComponentHealth
//	@Failure		503	{object}	ComponentHealth
//	@Router			/api/health/mq [get]
func HealthMQ(c *gin.Context) { healthOf("mq")(c) }
