package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vk/promptworks/internal/settings"
)

func (s *Server) getTestingTimeouts(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.TestingTimeouts())
}

type updateTimeoutsRequest struct {
	QuickTestTimeout float64 `json:"quick_test_timeout"`
	TestTaskTimeout  float64 `json:"test_task_timeout"`
}

// updateTestingTimeouts replaces the timeout configuration. Out-of-range
// values are coerced to the defaults rather than rejected.
func (s *Server) updateTestingTimeouts(c *gin.Context) {
	req := updateTimeoutsRequest{
		QuickTestTimeout: settings.DefaultQuickTestTimeout,
		TestTaskTimeout:  settings.DefaultTestTaskTimeout,
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, s.settings.UpdateTestingTimeouts(req.QuickTestTimeout, req.TestTaskTimeout))
}
