package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/patternlab/structmark/internal/config"
	"github.com/patternlab/structmark/internal/core"
	"github.com/patternlab/structmark/internal/driver"
	"github.com/patternlab/structmark/internal/llm"
	"github.com/patternlab/structmark/internal/quiz"
	"github.com/patternlab/structmark/internal/sandbox"
)

type Server struct {
	Marker    *core.Marker
	Grader    *llm.Grader // nil when no LLM provider is configured
	Bank      *quiz.Bank
	Scorer    *quiz.Scorer
	Analytics *quiz.AnalyticsLog
	Runner    sandbox.Runner
	AssetsDir string

	// Browser origins allowed by the CORS middleware; empty disables it.
	AllowedOrigins []string
}

// New wires a Server from already-built components. Tests construct servers
// through here; NewServer does the config and environment dance first.
func New(marker *core.Marker, grader *llm.Grader, runner sandbox.Runner, assetsDir string) *Server {
	return &Server{
		Marker:    marker,
		Grader:    grader,
		Bank:      quiz.NewBank(),
		Scorer:    quiz.NewScorer(grader),
		Analytics: quiz.NewAnalyticsLog(),
		Runner:    runner,
		AssetsDir: assetsDir,
	}
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}
	applyEnvOverrides(cfg)

	// Optional graph store. Grading must never depend on storage, so a
	// missing database disables persistence instead of refusing to start.
	var graphDriver driver.GraphDriver
	if cfg.Graph.Enabled {
		d, err := driver.NewMemgraphDriver(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
		if err != nil {
			log.Printf("Warning: graph store unavailable, submissions will not be persisted: %v", err)
		} else {
			if err := d.BuildIndices(context.Background()); err != nil {
				log.Printf("Warning: failed to build graph indices: %v", err)
			}
			graphDriver = d
		}
	}

	// Optional LLM grader. An empty provider means deterministic scoring
	// only; quiz free-response items fall back to the offline comparison.
	var grader *llm.Grader
	if cfg.Quiz.UseLLMFeedback && cfg.LLM.Provider != "" {
		client, err := llm.NewClient(context.Background(), cfg.LLM)
		if err != nil {
			log.Printf("Warning: LLM client unavailable, falling back to offline grading: %v", err)
		} else {
			interval := time.Duration(cfg.LLM.RateLimitSeconds * float64(time.Second))
			grader = llm.NewGrader(client, interval, cfg.LLM.MaxRetries)
		}
	}

	runner := sandbox.NewGCCRunner(cfg.Sandbox.Compiler, cfg.Sandbox.AssetsDir)

	srv := New(core.NewMarker(graphDriver, cfg.Grading), grader, runner, cfg.Sandbox.AssetsDir)
	srv.AllowedOrigins = cfg.Server.AllowedOrigins
	return srv
}

func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		cfg.Graph.Enabled = true
		cfg.Graph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		cfg.Graph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("ASSETS_DIR"); v != "" {
		cfg.Sandbox.AssetsDir = v
	}
	if v := os.Getenv("QUIZ_USE_LLM_FEEDBACK"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err == nil {
			cfg.Quiz.UseLLMFeedback = enabled
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	if len(s.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		if len(s.AllowedOrigins) == 1 && s.AllowedOrigins[0] == "*" {
			corsCfg.AllowAllOrigins = true
		} else {
			corsCfg.AllowOrigins = s.AllowedOrigins
			corsCfg.AllowCredentials = true
		}
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		r.Use(cors.New(corsCfg))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	uml := r.Group("/uml")
	{
		uml.POST("/canonicalize/diagram", s.CanonicalizeDiagram)
		uml.POST("/canonicalize/source", s.CanonicalizeSource)
		uml.POST("/grade/diagram", s.GradeDiagram)
		uml.POST("/grade/source", s.GradeSource)
		uml.GET("/submissions/:id", s.GetSubmission)
	}

	q := r.Group("/quiz")
	{
		q.GET("/mqs", s.ListQuizzes)
		q.GET("/mq/:id", s.GetQuiz)
		q.POST("/submit", s.SubmitQuiz)
		q.GET("/next", s.NextQuiz)
		q.GET("/analytics/attempts", s.ExportAnalytics)
	}

	ai := r.Group("/ai")
	{
		ai.GET("/health", s.AIHealth)
		ai.POST("/grade", s.AIGrade)
		ai.POST("/generate", s.AIGenerate)
	}

	pg := r.Group("/playground")
	{
		pg.POST("/run", s.RunPlayground)
		pg.GET("/files", s.PlaygroundFiles)
	}

	if s.AssetsDir != "" {
		r.Static("/static", s.AssetsDir)
	}

	return r
}
