package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vk/promptworks/internal/analysis"
	"github.com/vk/promptworks/internal/runner"
)

// listAnalysisModules returns the registered module definitions in
// registration order.
func (s *Server) listAnalysisModules(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.ListDefinitions())
}

// executeAnalysisModule runs a module against the results of a stored test
// run. Each domain error kind maps to its own status: unknown module and
// missing task are 404, parameter problems are 422, requirement and data
// load problems are 400; anything a handler raises is a plain 500.
func (s *Server) executeAnalysisModule(c *gin.Context) {
	var req analysis.ExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	result, err := s.runner.ExecuteForTestRun(&req, 0)
	if err != nil {
		var (
			unknownModule *analysis.UnknownModuleError
			taskNotFound  *runner.TaskNotFoundError
			paramErr      *analysis.ParameterValidationError
			reqErr        *analysis.RequirementValidationError
			loadErr       *runner.DataLoadError
		)
		switch {
		case errors.As(err, &unknownModule):
			c.JSON(http.StatusNotFound, detail(err.Error()))
		case errors.As(err, &taskNotFound):
			c.JSON(http.StatusNotFound, detail(err.Error()))
		case errors.As(err, &paramErr):
			c.JSON(http.StatusUnprocessableEntity, detail(err.Error()))
		case errors.As(err, &reqErr):
			c.JSON(http.StatusBadRequest, detail(err.Error()))
		case errors.As(err, &loadErr):
			c.JSON(http.StatusBadRequest, detail(err.Error()))
		default:
			s.logger.Error("Analysis module execution failed.", "moduleID", req.ModuleID, "error", err)
			c.JSON(http.StatusInternalServerError, detail("analysis module execution failed"))
		}
		return
	}

	c.JSON(http.StatusOK, runner.SerializeResult(req.ModuleID, result))
}
