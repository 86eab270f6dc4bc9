package pool

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"poolmon/internal/pkg/aggregator"
	"poolmon/internal/pkg/common/paging"
	"poolmon/internal/pkg/common/response"
)

type pointsQuery struct {
	paging.PagingQuery
	Prefix string `form:"prefix"`
}

type pass func(*aggregator.Aggregator, context.Context) (aggregator.Result, error)

// HandlerGetJobs runs a job pass over the pool.
//
// @Summary Count jobs in the pool
// @Description Queries every schedd of the pool and returns job counters sorted by name. Sources that could not be read are listed in failed.
// @Tags pool, jobs
// @Produce json
// @Param prefix query string false "Only return counters whose name starts with prefix"
// @Param paging query bool false "Page the result" default(true)
// @Param page query int false "Page number, from 1" minimum(1) default(1)
// @Param page_size query int false "Page size, 1-100" minimum(1) maximum(100) default(20)
// @Success 200 {object} response.Response{results=[]table.Point}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /pool/jobs [get]
func HandlerGetJobs(c *gin.Context) {
	servePass(c, (*aggregator.Aggregator).JobCounts)
}

// HandlerGetSlots runs a slot pass over the pool.
//
// @Summary Summarise slots in the pool
// @Description Reads every slot ad from the collector and returns slot counters sorted by name.
// @Tags pool, slots
// @Produce json
// @Param prefix query string false "Only return counters whose name starts with prefix"
// @Param paging query bool false "Page the result" default(true)
// @Param page query int false "Page number, from 1" minimum(1) default(1)
// @Param page_size query int false "Page size, 1-100" minimum(1) maximum(100) default(20)
// @Success 200 {object} response.Response{results=[]table.Point}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /pool/slots [get]
func HandlerGetSlots(c *gin.Context) {
	servePass(c, (*aggregator.Aggregator).SlotCounts)
}

func servePass(c *gin.Context, run pass) {
	var q pointsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: fmt.Sprintf("invalid query parameters: %s", err)})
		return
	}

	agg := aggregator.Default()
	if agg == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "aggregator not initialized"})
		return
	}

	res, err := run(agg, c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, response.Response{Detail: err.Error(), Failed: res.Failed})
		return
	}

	points := res.Snapshot.Points(q.Prefix)
	total := len(points)
	if !q.Paging {
		c.JSON(http.StatusOK, response.Response{Count: total, Failed: res.Failed, Results: points})
		return
	}
	start, end := q.Window(total)
	prev, next := response.BuildPageLinks(c.Request.URL, q.Page, q.PageSize, total)
	c.JSON(http.StatusOK, response.Response{
		Count:    total,
		Previous: prev,
		Next:     next,
		Failed:   res.Failed,
		Results:  points[start:end],
	})
}
