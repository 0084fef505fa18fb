package game

import (
    "errors"
    "sync"
    "time"
    "unicode/utf8"

    "github.com/google/uuid"
)

var (
    ErrNotHost        = errors.New("not host")
    ErrInvalidPhase   = errors.New("invalid phase for action")
    ErrUnknownTopic   = errors.New("topic not among candidates")
    ErrAnswerNotFound = errors.New("answer not found")
    ErrEmptyAnswer    = errors.New("answer is empty")
    ErrAnswerTooLong  = errors.New("answer too long")
)

// DefaultMaxAnswerRunes mirrors the client-side input limit.
const DefaultMaxAnswerRunes = 50

// Session is the single live game instance. All mutation goes through its
// methods; the mutex makes re-entry from in-flight judgment goroutines safe.
type Session struct {
    CreatedAt time.Time

    phase      Phase
    topic      string
    candidates []string
    answers    []*Answer
    hostConnID string

    maxAnswerRunes int

    mu sync.Mutex
}

func NewSession() *Session {
    return &Session{
        CreatedAt:      time.Now().UTC(),
        phase:          PhaseIdle,
        maxAnswerRunes: DefaultMaxAnswerRunes,
    }
}

// SetMaxAnswerRunes overrides the submission length limit. Zero or negative
// disables the check.
func (s *Session) SetMaxAnswerRunes(n int) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.maxAnswerRunes = n
}

func (s *Session) Phase() Phase {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.phase
}

func (s *Session) Topic() string {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.topic
}

func (s *Session) Candidates() []string {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]string, len(s.candidates))
    copy(out, s.candidates)
    return out
}

// RegisterHost marks connID as the host. The slot is exclusive and last
// writer wins; a previous host is simply replaced.
func (s *Session) RegisterHost(connID string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.hostConnID = connID
}

func (s *Session) HostConnID() string {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.hostConnID
}

// DropConnection clears the host slot if the leaving connection held it.
// Player connections need no cleanup; their answers stay in the session.
func (s *Session) DropConnection(connID string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.hostConnID == connID {
        s.hostConnID = ""
    }
}

// BeginTopicRound enters TopicPending on behalf of the host. Topic
// candidates arrive later via SetCandidates once the judge responds.
func (s *Session) BeginTopicRound(connID string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.hostConnID == "" || connID != s.hostConnID {
        return ErrNotHost
    }
    if s.phase != PhaseIdle {
        return ErrInvalidPhase
    }
    s.phase = PhaseTopicPending
    return nil
}

// SetCandidates records the judge's topic candidates and moves to
// AwaitingSelection. The stored set guards StartGame.
func (s *Session) SetCandidates(topics []string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.phase != PhaseTopicPending {
        return
    }
    s.candidates = make([]string, len(topics))
    copy(s.candidates, topics)
    s.phase = PhaseAwaitingSelection
}

// StartGame sets the topic and opens the answering phase. The topic must be
// one of the candidates previously handed to the host.
func (s *Session) StartGame(connID, topic string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.hostConnID == "" || connID != s.hostConnID {
        return ErrNotHost
    }
    if s.phase != PhaseAwaitingSelection {
        return ErrInvalidPhase
    }
    found := false
    for _, c := range s.candidates {
        if c == topic {
            found = true
            break
        }
    }
    if !found {
        return ErrUnknownTopic
    }
    s.topic = topic
    s.answers = nil
    s.phase = PhaseLive
    return nil
}

// BeginSubmission validates a player submission before its judgment call is
// started. The length limit is re-checked here; the client enforces it too
// but the server is the authority.
func (s *Session) BeginSubmission(deviation string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.phase != PhaseLive {
        return ErrInvalidPhase
    }
    if deviation == "" {
        return ErrEmptyAnswer
    }
    if s.maxAnswerRunes > 0 && utf8.RuneCountInString(deviation) > s.maxAnswerRunes {
        return ErrAnswerTooLong
    }
    return nil
}

// AppendAnswer stores a judged answer and returns its wire view. Answers are
// appended in judgment-completion order, and an in-flight judgment is allowed
// to land even after the game finished, so no phase check happens here.
func (s *Session) AppendAnswer(nickname, deviation string, j Judgment, synthetic bool) AnswerView {
    s.mu.Lock()
    defer s.mu.Unlock()
    a := &Answer{
        ID:        uuid.NewString(),
        Nickname:  nickname,
        Deviation: deviation,
        Judgment:  j,
        CreatedAt: time.Now().UTC(),
        Synthetic: synthetic,
        likedBy:   make(map[string]struct{}),
    }
    s.answers = append(s.answers, a)
    return a.view()
}

// ToggleLike flips connID's membership in the answer's like set and returns
// the resulting count. Retransmitted toggles stay idempotent per pair since
// membership, not a counter, is stored.
func (s *Session) ToggleLike(connID, answerID string) (likes int, err error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.phase != PhaseLive {
        return 0, ErrInvalidPhase
    }
    for _, a := range s.answers {
        if a.ID != answerID {
            continue
        }
        if _, liked := a.likedBy[connID]; liked {
            delete(a.likedBy, connID)
        } else {
            a.likedBy[connID] = struct{}{}
        }
        return len(a.likedBy), nil
    }
    return 0, ErrAnswerNotFound
}

// Finish closes the answering phase and returns the award-eligible answers
// (synthetic examples excluded) in arrival order. Award computation happens
// once; late-landing answers never reopen it.
func (s *Session) Finish(connID string) ([]AnswerView, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.hostConnID == "" || connID != s.hostConnID {
        return nil, ErrNotHost
    }
    if s.phase != PhaseLive {
        return nil, ErrInvalidPhase
    }
    s.phase = PhaseFinished
    eligible := make([]AnswerView, 0, len(s.answers))
    for _, a := range s.answers {
        if !a.Synthetic {
            eligible = append(eligible, a.view())
        }
    }
    return eligible, nil
}

// Reset returns a finished (or abandoned) game to Idle, clearing topic,
// candidates and answers. The host slot survives the reset.
func (s *Session) Reset(connID string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.hostConnID == "" || connID != s.hostConnID {
        return ErrNotHost
    }
    if s.phase == PhaseIdle {
        return ErrInvalidPhase
    }
    s.phase = PhaseIdle
    s.topic = ""
    s.candidates = nil
    s.answers = nil
    return nil
}

// AnswerViews snapshots every stored answer with like counts computed from
// the live sets, for connection_sync and game_finished payloads.
func (s *Session) AnswerViews() []AnswerView {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]AnswerView, 0, len(s.answers))
    for _, a := range s.answers {
        out = append(out, a.view())
    }
    return out
}

// Snapshot is the full state a (re)joining host needs.
type Snapshot struct {
    Phase   Phase        `json:"phase"`
    Topic   string       `json:"topic"`
    Answers []AnswerView `json:"answers"`
}

func (s *Session) Snapshot() Snapshot {
    s.mu.Lock()
    defer s.mu.Unlock()
    answers := make([]AnswerView, 0, len(s.answers))
    for _, a := range s.answers {
        answers = append(answers, a.view())
    }
    return Snapshot{Phase: s.phase, Topic: s.topic, Answers: answers}
}

// NoEligibleResult is the sentinel returned when the game finishes without a
// single player answer.
func NoEligibleResult() Result {
    empty := AwardView{
        AnswerView: AnswerView{Nickname: "該当なし", Deviation: "-"},
        Reason:     "回答がありませんでした",
    }
    return Result{GrandPrix: empty, PivotAward: empty}
}
