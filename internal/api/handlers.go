package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grantnet/netintel/internal/graph"
)

func (s *Server) handleHealth(c *gin.Context) {
	g := s.builder.Network()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"build_id": s.builder.BuildID(),
		"nodes":    g.NodeCount(),
		"edges":    g.EdgeCount(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.builder.NetworkStatistics())
}

func (s *Server) handleCoFunders(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"grantee_id": id,
		"cofunders":  s.engine.FindCoFunders(id),
	})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.GranteePortfolio(c.Param("id")))
}

func (s *Server) handleShared(c *gin.Context) {
	a, b := c.Param("id"), c.Param("other")
	c.JSON(http.StatusOK, gin.H{
		"foundation_1":    a,
		"foundation_2":    b,
		"shared_grantees": s.engine.FindSharedGrantees(a, b),
	})
}

func (s *Server) handleSimilar(c *gin.Context) {
	top, ok := intQuery(c, "top", 0)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"foundation_id": c.Param("id"),
		"similar":       s.engine.SimilarFunders(c.Param("id"), top),
	})
}

func (s *Server) handlePaths(c *gin.Context) {
	source, target, ok := endpoints(c)
	if !ok {
		return
	}
	hops, ok := intQuery(c, "max_hops", 0)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source": source,
		"target": target,
		"paths":  s.engine.FundingPaths(source, target, hops),
	})
}

func (s *Server) handlePathways(c *gin.Context) {
	source, target, ok := endpoints(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":   source,
		"target":   target,
		"pathways": s.pathfinder.FindBoardPathways(source, target),
	})
}

func (s *Server) handleTopInfluencers(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 10)
	if !ok {
		return
	}
	nodeType := graph.NodeType(c.Query("type"))
	switch nodeType {
	case "", graph.Foundation, graph.Grantee:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be foundation or grantee"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"influencers": s.analyzer.ScoreTopInfluencers(limit, nodeType),
	})
}

func (s *Server) handleDistribution(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.InfluenceDistribution())
}

func (s *Server) handleNodeInfluence(c *gin.Context) {
	ni, ok := s.analyzer.ScoreNodeInfluence(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not in network"})
		return
	}
	c.JSON(http.StatusOK, ni)
}

func (s *Server) handleBrokers(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.FindBrokers())
}

func (s *Server) handleLapsed(c *gin.Context) {
	ref, ok := intQuery(c, "reference_year", 0)
	if !ok {
		return
	}
	lapse, ok := intQuery(c, "lapse_years", 0)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lapsed": s.engine.LapsedRelationships(ref, lapse),
	})
}

func (s *Server) handleExportJSON(c *gin.Context) {
	c.JSON(http.StatusOK, s.builder.ExportJSON())
}

func (s *Server) handleExportGraphML(c *gin.Context) {
	doc, err := s.builder.ExportGraphML()
	if err != nil {
		s.logger.Error("GraphML export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(doc))
}

func endpoints(c *gin.Context) (string, string, bool) {
	source, target := c.Query("source"), c.Query("target")
	if source == "" || target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and target are required"})
		return "", "", false
	}
	return source, target, true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be an integer"})
		return 0, false
	}
	return v, true
}
