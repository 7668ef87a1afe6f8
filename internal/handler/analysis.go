package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"petflip/internal/service"
)

// AnalysisHandler serves the profitability ranking and its search view.
type AnalysisHandler struct {
	Analyzer     *service.Analyzer
	DefaultSkill string
}

func (h *AnalysisHandler) Register(r *gin.Engine) {
	r.POST("/api/analyze", h.analyze)
	r.POST("/api/search", h.search)
}

func (h *AnalysisHandler) analyze(c *gin.Context) {
	skill := h.skillParam(c)
	results, err := h.Analyzer.Analyze(c.Request.Context(), skill)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, results, map[string]any{"skill": skill, "count": len(results)})
}

func (h *AnalysisHandler) search(c *gin.Context) {
	term := strings.TrimSpace(c.PostForm("search_term"))
	if term == "" {
		term = strings.TrimSpace(c.Query("search_term"))
	}
	skill := h.skillParam(c)
	results, err := h.Analyzer.Search(c.Request.Context(), term, skill)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, results, map[string]any{"skill": skill, "search_term": term, "count": len(results)})
}

func (h *AnalysisHandler) skillParam(c *gin.Context) string {
	skill := strings.TrimSpace(c.PostForm("skill"))
	if skill == "" {
		skill = strings.TrimSpace(c.Query("skill"))
	}
	if skill == "" {
		skill = h.DefaultSkill
	}
	return skill
}
