package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/middleware"
	"github.com/yeisme/papervault/pkg/scheduler"
)

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary		定时任务列表
//	@Tags			管理
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string][]scheduler.JobInfo
//	@Failure		503	{object}	types.ErrorResponse
//	@Router			/api/admin/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即执行指定任务.
//
//	@Summary		立即执行定时任务
//	@Tags			管理
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	path		string	true	"任务名称"
//	@Success		202		{object}	types.MessageResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/admin/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		fail(c, err)

		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered"})
}

// Sweep 同步执行一次孤儿对象巡检.
//
//	@Summary		孤儿对象巡检
//	@Tags			管理
//	@Produce		json
//	@Security		BearerAuth
//	@Param			dry_run	query		bool	false	"只报告不删除"
//	@Success		200		{object}	types.SweepReport
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		500		{object}	types.ErrorResponse
//	@Router			/api/admin/sweep [post]
func (h *Handlers) Sweep(c *gin.Context) {
	dryRun := false

	if raw := c.Query("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, service.BadRequest("Invalid dry_run"))
			return
		}

		dryRun = v
	}

	report, err := h.sweep.Run(c.Request.Context(), dryRun)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
