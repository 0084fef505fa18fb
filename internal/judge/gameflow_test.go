package judge

import (
	"context"
	"testing"

	"github.com/oogirilab/catalyst/internal/game"
)

// scriptedProvider returns a different canned response per call, the way a
// full game exercises the judge: topics, examples, judgments, awards.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	r := p.responses[p.calls%len(p.responses)]
	p.calls++
	return r, nil
}

func TestFullGameFlow(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{responses: []string{
		`["お題1","お題2","お題3","お題4","お題5","お題6"]`,
		`["模範ボケ1","模範ボケ2"]`,
		`{"praise_phrase":"鋭い！","business_pivot":"面白い事業"}`,
		`{"praise_phrase":"鋭い！","business_pivot":"面白い事業"}`,
		`{"praise_phrase":"見事！","business_pivot":"猫型経営コンサル"}`,
		`{"grand_prix_index":0,"grand_prix_reason":"文句なし","pivot_award_index":0,"pivot_award_reason":"跳躍が大きい"}`,
	}}
	j := New(p, "test-model")
	s := game.NewSession()
	s.RegisterHost("host-conn")

	// Host submits a problem and gets exactly six topic candidates
	if err := s.BeginTopicRound("host-conn"); err != nil {
		t.Fatalf("begin topic round: %v", err)
	}
	topics := j.GenerateTopics(ctx, "営業が疲弊している")
	if len(topics) != 6 {
		t.Fatalf("expected 6 topics, got %d", len(topics))
	}
	s.SetCandidates(topics)

	// Host selects candidate index 2; everyone gets that exact topic
	if err := s.StartGame("host-conn", topics[2]); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if s.Topic() != "お題3" {
		t.Fatalf("expected topic お題3, got %s", s.Topic())
	}

	// Two synthetic examples land before any player answer
	for _, ex := range j.GenerateExampleAnswers(ctx, s.Topic()) {
		jd := j.GenerateJudgment(ctx, ex, s.Topic())
		s.AppendAnswer("AI師匠", ex, jd, true)
	}
	if n := len(s.AnswerViews()); n != 2 {
		t.Fatalf("expected 2 synthetic answers, got %d", n)
	}

	// Player submits
	if err := s.BeginSubmission("社長が猫"); err != nil {
		t.Fatalf("begin submission: %v", err)
	}
	jd := j.GenerateJudgment(ctx, "社長が猫", s.Topic())
	view := s.AppendAnswer("ボケ太郎", "社長が猫", jd, false)
	if view.Deviation != "社長が猫" {
		t.Fatalf("expected deviation 社長が猫, got %s", view.Deviation)
	}
	if view.Likes != 0 {
		t.Fatalf("fresh answer should have 0 likes, got %d", view.Likes)
	}
	if view.BusinessPivot != "猫型経営コンサル" {
		t.Fatalf("unexpected pivot: %s", view.BusinessPivot)
	}

	// Host finishes; awards draw only from non-synthetic answers
	eligible, err := s.Finish("host-conn")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(eligible) != 1 {
		t.Fatalf("expected 1 eligible answer, got %d", len(eligible))
	}
	awards, ok := j.SelectAwards(ctx, eligible)
	if !ok {
		t.Fatal("expected awards")
	}
	winner := eligible[awards.GrandPrixIndex]
	if winner.IsAI {
		t.Fatal("award winner must not be synthetic")
	}
	if winner.Deviation != "社長が猫" {
		t.Fatalf("expected winning deviation 社長が猫, got %s", winner.Deviation)
	}
}
