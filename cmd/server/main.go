package main

import (
    "flag"
    "fmt"
    "log"
    "net/http"
    "os"
    "strings"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/joho/godotenv"
    "github.com/rs/zerolog"
    zerologlog "github.com/rs/zerolog/log"

    "github.com/oogirilab/catalyst/internal/ai"
    "github.com/oogirilab/catalyst/internal/ai/gemini"
    "github.com/oogirilab/catalyst/internal/ai/ollama"
    "github.com/oogirilab/catalyst/internal/config"
    "github.com/oogirilab/catalyst/internal/game"
    "github.com/oogirilab/catalyst/internal/judge"
    "github.com/oogirilab/catalyst/internal/ws"
    staticserver "github.com/oogirilab/catalyst/static"
)

const version = "v1.0.0-dev"

func main() {
    var (
        showHelp    = flag.Bool("help", false, "Show help message")
        showVersion = flag.Bool("version", false, "Show version information")
        portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
    )
    flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
    flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
    flag.Parse()

    if *showHelp {
        fmt.Printf(`Catalyst - Real-time AI ogiri party game

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 3000 or PORT env var)

Environment Variables:
  PORT                Port to listen on (default: 3000)
  AI_PROVIDER         AI provider: "gemini" or "ollama" (default: gemini)
  AI_MODEL            Model to use (default: gemini-2.0-flash)
  GEMINI_API_KEY      Gemini API key (required for Gemini provider)
  GEMINI_BASE_URL     Custom Gemini API base URL (optional)
  OLLAMA_HOST         Ollama host URL (default: http://localhost:11434)
  EXPORT_ENABLED      Export game results to file (default: true)
  EXPORT_FILE         Path to export game results (default: ./catalyst-results.txt)
  MAX_ANSWER_LENGTH   Maximum answer length in characters (default: 50)

Examples:
  %s                  Start server with default settings
  %s --port 8080      Start server on port 8080

Visit http://localhost:3000 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
        return
    }

    if *showVersion {
        fmt.Printf("Catalyst %s\n", version)
        return
    }

    // .env is optional; env vars win either way
    _ = godotenv.Load()

    cfg := config.FromEnv()

    port := *portFlag
    if port == "" {
        port = cfg.Port
    }

    // zerolog setup (human-friendly console)
    zerolog.TimeFieldFormat = time.RFC3339
    cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    zerologlog.Logger = zerologlog.Output(cw)

    // Gin setup with custom logger (skip /socket.io noise)
    gin.SetMode(gin.ReleaseMode)
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        start := time.Now()
        c.Next()
        path := c.Request.URL.Path
        if strings.HasPrefix(path, "/socket.io") {
            return
        }
        status := c.Writer.Status()
        dur := time.Since(start)
        zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
    })

    // Healthcheck
    r.GET("/health", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
    })

    // AI provider
    var provider ai.Provider
    switch strings.ToLower(cfg.Provider) {
    case "ollama":
        provider = ollama.New(cfg.OllamaHost)
    default:
        provider = gemini.New(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
    }
    j := judge.New(provider, cfg.Model)

    // The one session lives for the whole process and is handed to every
    // handler explicitly.
    session := game.NewSession()
    session.SetMaxAnswerRunes(cfg.MaxAnswerRunes)

    sock := ws.New(session, j, cfg)
    io := sock.Mount(r)
    defer io.Close()

    // Minimal operator API for the single session
    r.GET("/api/session", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{
            "phase":   session.Phase(),
            "topic":   session.Topic(),
            "answers": len(session.AnswerViews()),
        })
    })

    // Serve frontend (if embedded build is present) for all other routes
    r.NoRoute(func(c *gin.Context) {
        staticserver.Handler().ServeHTTP(c.Writer, c.Request)
    })

    log.Printf("listening on :%s", port)
    if err := r.Run(":" + port); err != nil {
        log.Fatal(err)
    }
}
