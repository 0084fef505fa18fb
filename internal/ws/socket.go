package ws

import (
    "context"
    "net/http"
    "sync"

    "github.com/gin-gonic/gin"
    socketio "github.com/googollee/go-socket.io"
    "github.com/rs/zerolog/log"

    "github.com/oogirilab/catalyst/internal/config"
    "github.com/oogirilab/catalyst/internal/game"
    "github.com/oogirilab/catalyst/internal/judge"
)

// room is the single broadcast group; every connection joins it. The design
// holds exactly one concurrent session.
const room = "game"

const syntheticNickname = "AI師匠"

type ConnCtx struct {
    Role     string // "host" | "player" | ""
    Nickname string
}

type Server struct {
    session *game.Session
    judge   *judge.Judge
    config  config.Config

    mu      sync.RWMutex
    members map[string]socketio.Conn // socketID -> Conn
}

func New(session *game.Session, j *judge.Judge, cfg config.Config) *Server {
    return &Server{session: session, judge: j, config: cfg, members: make(map[string]socketio.Conn)}
}

// Mount attaches the Socket.IO server with all game event handlers to the
// given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
    io := socketio.NewServer(nil)

    io.OnConnect("/", func(s socketio.Conn) error {
        s.SetContext(&ConnCtx{})
        s.Join(room)
        srv.addMember(s)
        log.Info().Str("sid", s.ID()).Msg("socket connected")
        return nil
    })

    // host_join: the host slot is exclusive, last writer wins.
    io.OnEvent("/", "host_join", func(s socketio.Conn) map[string]any {
        ctx := s.Context().(*ConnCtx)
        ctx.Role = "host"
        srv.session.RegisterHost(s.ID())
        log.Info().Str("sid", s.ID()).Msg("host_join")
        s.Emit("game_state_update", srv.session.Snapshot())
        return map[string]any{"ok": true}
    })

    // submit_problem: host hands in a problem statement, judge turns it into
    // topic candidates delivered to the host only.
    io.OnEvent("/", "submit_problem", func(s socketio.Conn, problem string) map[string]any {
        if err := srv.session.BeginTopicRound(s.ID()); err != nil {
            return srv.err(s, "bad_request", err.Error())
        }
        log.Info().Str("sid", s.ID()).Msg("submit_problem")
        go func() {
            topics := srv.judge.GenerateTopics(context.Background(), problem)
            srv.session.SetCandidates(topics)
            srv.emitToHost("topics_generated", topics)
        }()
        return map[string]any{"ok": true}
    })

    // start_game: host picks one of the candidates; everyone learns the
    // topic, then the judge seeds the board with example answers.
    io.OnEvent("/", "start_game", func(s socketio.Conn, selectedTopic string) map[string]any {
        if err := srv.session.StartGame(s.ID(), selectedTopic); err != nil {
            return srv.err(s, "bad_request", err.Error())
        }
        log.Info().Str("sid", s.ID()).Str("topic", selectedTopic).Msg("start_game")
        io.BroadcastToRoom("/", room, "game_started", selectedTopic)
        go func() {
            examples := srv.judge.GenerateExampleAnswers(context.Background(), selectedTopic)
            for _, ans := range examples {
                jd := srv.judge.GenerateJudgment(context.Background(), ans, selectedTopic)
                view := srv.session.AppendAnswer(syntheticNickname, ans, jd, true)
                io.BroadcastToRoom("/", room, "new_answer", view)
            }
        }()
        return map[string]any{"ok": true}
    })

    // player_join: acknowledge and sync current state so a late or
    // reconnecting player rebuilds the board without replaying history.
    io.OnEvent("/", "player_join", func(s socketio.Conn, nickname string) map[string]any {
        ctx := s.Context().(*ConnCtx)
        ctx.Role = "player"
        ctx.Nickname = nickname
        log.Info().Str("sid", s.ID()).Str("nickname", nickname).Msg("player_join")
        s.Emit("player_joined_ack", map[string]any{"topic": srv.session.Topic()})
        s.Emit("connection_sync", map[string]any{"answers": srv.session.AnswerViews()})
        return map[string]any{"ok": true}
    })

    // submit_answer: validated now, judged asynchronously. Answers land in
    // judgment-completion order, which may differ from submission order.
    io.OnEvent("/", "submit_answer", func(s socketio.Conn, payload struct {
        Nickname string `json:"nickname"`
        Answer   string `json:"answer"`
    }) map[string]any {
        if err := srv.session.BeginSubmission(payload.Answer); err != nil {
            return srv.err(s, "bad_request", err.Error())
        }
        topic := srv.session.Topic()
        log.Info().Str("sid", s.ID()).Str("nickname", payload.Nickname).Msg("submit_answer")
        go func() {
            jd := srv.judge.GenerateJudgment(context.Background(), payload.Answer, topic)
            view := srv.session.AppendAnswer(payload.Nickname, payload.Answer, jd, false)
            io.BroadcastToRoom("/", room, "new_answer", view)
        }()
        return map[string]any{"ok": true}
    })

    // like_answer: membership toggle keyed by connection id, so a repeated
    // click can never double-count.
    io.OnEvent("/", "like_answer", func(s socketio.Conn, answerID string) map[string]any {
        likes, err := srv.session.ToggleLike(s.ID(), answerID)
        if err != nil {
            return srv.err(s, "bad_request", err.Error())
        }
        log.Info().Str("sid", s.ID()).Str("answerId", answerID).Int("likes", likes).Msg("like_answer")
        io.BroadcastToRoom("/", room, "update_likes", map[string]any{"id": answerID, "likes": likes})
        return map[string]any{"ok": true}
    })

    // finish_game: compute awards over non-synthetic answers and push the
    // final result with the full list to everyone.
    io.OnEvent("/", "finish_game", func(s socketio.Conn) map[string]any {
        eligible, err := srv.session.Finish(s.ID())
        if err != nil {
            return srv.err(s, "bad_request", err.Error())
        }
        log.Info().Str("sid", s.ID()).Int("eligible", len(eligible)).Msg("finish_game")
        var result game.Result
        if awards, ok := srv.judge.SelectAwards(context.Background(), eligible); ok {
            result = game.Result{
                GrandPrix:  game.AwardView{AnswerView: eligible[awards.GrandPrixIndex], Reason: awards.GrandPrixReason},
                PivotAward: game.AwardView{AnswerView: eligible[awards.PivotAwardIndex], Reason: awards.PivotAwardReason},
            }
        } else {
            result = game.NoEligibleResult()
        }
        io.BroadcastToRoom("/", room, "game_finished", map[string]any{
            "result":      result,
            "all_answers": srv.session.AnswerViews(),
            "topic":       srv.session.Topic(),
        })
        if srv.config.ExportEnabled {
            if exportErr := game.ExportSession(srv.session, result, srv.config.ExportFile); exportErr != nil {
                log.Error().Err(exportErr).Msg("failed to export game results")
            } else {
                log.Info().Str("file", srv.config.ExportFile).Msg("exported game results")
            }
        }
        return map[string]any{"ok": true}
    })

    // reset_game: back to Idle for a fresh round without a process restart.
    io.OnEvent("/", "reset_game", func(s socketio.Conn) map[string]any {
        if err := srv.session.Reset(s.ID()); err != nil {
            return srv.err(s, "bad_request", err.Error())
        }
        log.Info().Str("sid", s.ID()).Msg("reset_game")
        io.BroadcastToRoom("/", room, "game_reset", map[string]any{})
        return map[string]any{"ok": true}
    })

    io.OnError("/", func(s socketio.Conn, e error) {
        log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
    })

    io.OnDisconnect("/", func(s socketio.Conn, reason string) {
        srv.session.DropConnection(s.ID())
        srv.removeMember(s)
        log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
    })

    go io.Serve()

    r.GET("/socket.io/*any", gin.WrapH(io))
    r.POST("/socket.io/*any", gin.WrapH(io))

    // Basic CORS preflight for Socket.IO POST
    r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
        c.Header("Access-Control-Allow-Origin", "*")
        c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
        c.Header("Access-Control-Allow-Headers", "Content-Type")
        c.Status(http.StatusNoContent)
    })

    return io
}

func (srv *Server) addMember(c socketio.Conn) {
    srv.mu.Lock()
    defer srv.mu.Unlock()
    srv.members[c.ID()] = c
}

func (srv *Server) removeMember(c socketio.Conn) {
    srv.mu.Lock()
    defer srv.mu.Unlock()
    delete(srv.members, c.ID())
}

// emitToHost delivers a host-only event to whichever connection currently
// holds the host slot.
func (srv *Server) emitToHost(event string, payload any) {
    hostID := srv.session.HostConnID()
    if hostID == "" {
        return
    }
    srv.mu.RLock()
    c := srv.members[hostID]
    srv.mu.RUnlock()
    if c != nil {
        c.Emit(event, payload)
    }
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
    s.Emit("error", map[string]any{"code": code, "message": message})
    return map[string]any{"error": message}
}
