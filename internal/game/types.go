package game

import (
    "time"
)

type Phase string

const (
    PhaseIdle              Phase = "Idle"
    PhaseTopicPending      Phase = "TopicPending"
    PhaseAwaitingSelection Phase = "AwaitingSelection"
    PhaseLive              Phase = "Live"
    PhaseFinished          Phase = "Finished"
)

// Judgment is the AI reaction attached to an answer at creation. It is never
// re-scored afterwards.
type Judgment struct {
    PraisePhrase  string `json:"praise_phrase"`
    BusinessPivot string `json:"business_pivot"`
}

// Answer is one submitted deviation plus its judgment. likedBy holds the
// connection ids that currently like it; the set is the source of truth and
// like counts are derived from it at view time.
type Answer struct {
    ID        string
    Nickname  string
    Deviation string
    Judgment  Judgment
    CreatedAt time.Time
    Synthetic bool

    likedBy map[string]struct{}
}

// AnswerView is the wire shape of an answer. Connection ids never leave the
// server; likes carries the set size instead.
type AnswerView struct {
    ID            string `json:"id"`
    Nickname      string `json:"nickname"`
    Deviation     string `json:"deviation"`
    PraisePhrase  string `json:"praise_phrase"`
    BusinessPivot string `json:"business_pivot"`
    IsAI          bool   `json:"is_ai"`
    Timestamp     int64  `json:"timestamp"`
    Likes         int    `json:"likes"`
}

// AwardView is a winning answer plus the judge's stated reason.
type AwardView struct {
    AnswerView
    Reason string `json:"reason"`
}

// Result carries both awards for game_finished.
type Result struct {
    GrandPrix  AwardView `json:"grand_prix"`
    PivotAward AwardView `json:"pivot_award"`
}

func (a *Answer) view() AnswerView {
    return AnswerView{
        ID:            a.ID,
        Nickname:      a.Nickname,
        Deviation:     a.Deviation,
        PraisePhrase:  a.Judgment.PraisePhrase,
        BusinessPivot: a.Judgment.BusinessPivot,
        IsAI:          a.Synthetic,
        Timestamp:     a.CreatedAt.UnixMilli(),
        Likes:         len(a.likedBy),
    }
}
