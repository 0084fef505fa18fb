package game

import (
	"fmt"
	"sync"
	"testing"
)

const hostID = "host-conn"

func newLiveSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	s.RegisterHost(hostID)
	if err := s.BeginTopicRound(hostID); err != nil {
		t.Fatalf("should be able to begin topic round: %v", err)
	}
	s.SetCandidates([]string{"お題A", "お題B", "お題C"})
	if err := s.StartGame(hostID, "お題B"); err != nil {
		t.Fatalf("should be able to start game: %v", err)
	}
	return s
}

func TestNewSession(t *testing.T) {
	s := NewSession()
	if s.Phase() != PhaseIdle {
		t.Fatalf("expected initial phase %s, got %s", PhaseIdle, s.Phase())
	}
	if s.Topic() != "" {
		t.Fatal("topic should be empty initially")
	}
	if s.HostConnID() != "" {
		t.Fatal("host slot should be empty initially")
	}
}

func TestHostRegistration(t *testing.T) {
	s := NewSession()

	s.RegisterHost("conn-1")
	if s.HostConnID() != "conn-1" {
		t.Fatalf("expected host conn-1, got %s", s.HostConnID())
	}

	// Last writer wins, no eviction protocol
	s.RegisterHost("conn-2")
	if s.HostConnID() != "conn-2" {
		t.Fatalf("expected host conn-2 after overwrite, got %s", s.HostConnID())
	}

	// Disconnect of a non-host connection leaves the slot alone
	s.DropConnection("conn-1")
	if s.HostConnID() != "conn-2" {
		t.Fatal("dropping a non-host connection should not clear the host slot")
	}

	// Disconnect of the host clears the slot
	s.DropConnection("conn-2")
	if s.HostConnID() != "" {
		t.Fatal("dropping the host connection should clear the host slot")
	}
}

func TestPhaseTransitions(t *testing.T) {
	s := NewSession()
	s.RegisterHost(hostID)

	// Only the host may begin a topic round
	if err := s.BeginTopicRound("someone-else"); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}

	if err := s.BeginTopicRound(hostID); err != nil {
		t.Fatalf("should be able to begin topic round: %v", err)
	}
	if s.Phase() != PhaseTopicPending {
		t.Fatalf("expected phase %s, got %s", PhaseTopicPending, s.Phase())
	}

	// A second problem while one is pending is rejected
	if err := s.BeginTopicRound(hostID); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}

	// Starting before candidates exist is rejected
	if err := s.StartGame(hostID, "お題A"); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase before candidates, got %v", err)
	}

	s.SetCandidates([]string{"お題A", "お題B"})
	if s.Phase() != PhaseAwaitingSelection {
		t.Fatalf("expected phase %s, got %s", PhaseAwaitingSelection, s.Phase())
	}

	// The selected topic must come from the candidate set
	if err := s.StartGame(hostID, "勝手なお題"); err != ErrUnknownTopic {
		t.Fatalf("expected ErrUnknownTopic, got %v", err)
	}

	if err := s.StartGame(hostID, "お題A"); err != nil {
		t.Fatalf("should be able to start game: %v", err)
	}
	if s.Phase() != PhaseLive {
		t.Fatalf("expected phase %s, got %s", PhaseLive, s.Phase())
	}
	if s.Topic() != "お題A" {
		t.Fatalf("expected topic お題A, got %s", s.Topic())
	}
	if len(s.AnswerViews()) != 0 {
		t.Fatal("answers should be cleared on game start")
	}
}

func TestSubmissionValidation(t *testing.T) {
	s := NewSession()
	if err := s.BeginSubmission("早すぎる回答"); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase before game start, got %v", err)
	}

	s = newLiveSession(t)

	if err := s.BeginSubmission(""); err != ErrEmptyAnswer {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}

	// 50 runes is fine, 51 is not (runes, not bytes)
	long := ""
	for i := 0; i < 50; i++ {
		long += "あ"
	}
	if err := s.BeginSubmission(long); err != nil {
		t.Fatalf("50-rune answer should be accepted: %v", err)
	}
	if err := s.BeginSubmission(long + "あ"); err != ErrAnswerTooLong {
		t.Fatalf("expected ErrAnswerTooLong, got %v", err)
	}

	// Limit can be disabled
	s.SetMaxAnswerRunes(0)
	if err := s.BeginSubmission(long + long); err != nil {
		t.Fatalf("disabled limit should accept any length: %v", err)
	}
}

func TestLikeToggleParity(t *testing.T) {
	s := newLiveSession(t)
	view := s.AppendAnswer("ボケ太郎", "社長が猫", Judgment{PraisePhrase: "いいね", BusinessPivot: "猫型経営"}, false)
	if view.Likes != 0 {
		t.Fatalf("fresh answer should have 0 likes, got %d", view.Likes)
	}

	// Odd number of toggles from the same connection -> liked
	for i := 0; i < 5; i++ {
		if _, err := s.ToggleLike("conn-a", view.ID); err != nil {
			t.Fatalf("toggle %d failed: %v", i, err)
		}
	}
	likes, err := s.ToggleLike("conn-b", view.ID)
	if err != nil {
		t.Fatalf("toggle from second connection failed: %v", err)
	}
	if likes != 2 {
		t.Fatalf("expected 2 likes (conn-a odd toggles + conn-b), got %d", likes)
	}

	// Even number of toggles -> back to not liked
	s.ToggleLike("conn-b", view.ID)
	views := s.AnswerViews()
	if views[0].Likes != 1 {
		t.Fatalf("expected 1 like after conn-b untoggled, got %d", views[0].Likes)
	}

	// Unknown answer id is reported, not fatal
	if _, err := s.ToggleLike("conn-a", "no-such-id"); err != ErrAnswerNotFound {
		t.Fatalf("expected ErrAnswerNotFound, got %v", err)
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := newLiveSession(t)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendAnswer(fmt.Sprintf("player%d", i), fmt.Sprintf("回答%d", i), Judgment{}, false)
		}(i)
	}
	wg.Wait()

	views := s.AnswerViews()
	if len(views) != n {
		t.Fatalf("expected %d answers, got %d", n, len(views))
	}
	seen := make(map[string]bool)
	for _, v := range views {
		if seen[v.ID] {
			t.Fatalf("duplicate answer id %s", v.ID)
		}
		seen[v.ID] = true
	}
}

func TestFinishEligibility(t *testing.T) {
	s := newLiveSession(t)
	s.AppendAnswer("AI師匠", "AIの模範回答1", Judgment{}, true)
	s.AppendAnswer("ボケ太郎", "社長が猫", Judgment{}, false)
	s.AppendAnswer("AI師匠", "AIの模範回答2", Judgment{}, true)
	s.AppendAnswer("ボケ次郎", "会議室が回転する", Judgment{}, false)

	// Only the host may finish
	if _, err := s.Finish("not-the-host"); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}

	eligible, err := s.Finish(hostID)
	if err != nil {
		t.Fatalf("should be able to finish: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible answers, got %d", len(eligible))
	}
	if eligible[0].Deviation != "社長が猫" || eligible[1].Deviation != "会議室が回転する" {
		t.Fatal("eligible answers should keep arrival order and exclude synthetic ones")
	}
	if s.Phase() != PhaseFinished {
		t.Fatalf("expected phase %s, got %s", PhaseFinished, s.Phase())
	}

	// Finishing twice is rejected
	if _, err := s.Finish(hostID); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase on double finish, got %v", err)
	}

	// Likes are frozen after finish
	if _, err := s.ToggleLike("conn-a", eligible[0].ID); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase for post-finish like, got %v", err)
	}

	// An in-flight judgment is still allowed to land after finish
	s.AppendAnswer("遅刻者", "遅れてきた回答", Judgment{}, false)
	if len(s.AnswerViews()) != 5 {
		t.Fatal("late-landing answer should be stored after finish")
	}
}

func TestLateJoinSnapshot(t *testing.T) {
	s := newLiveSession(t)
	a := s.AppendAnswer("ボケ太郎", "社長が猫", Judgment{}, false)
	b := s.AppendAnswer("ボケ次郎", "朝礼がラップ", Judgment{}, false)
	s.ToggleLike("conn-1", a.ID)
	s.ToggleLike("conn-2", a.ID)
	s.ToggleLike("conn-1", b.ID)
	s.ToggleLike("conn-1", b.ID) // toggled back off

	views := s.AnswerViews()
	if views[0].Likes != 2 {
		t.Fatalf("expected 2 likes on first answer, got %d", views[0].Likes)
	}
	if views[1].Likes != 0 {
		t.Fatalf("expected 0 likes on second answer, got %d", views[1].Likes)
	}

	snap := s.Snapshot()
	if snap.Phase != PhaseLive || snap.Topic != "お題B" || len(snap.Answers) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestReset(t *testing.T) {
	s := newLiveSession(t)
	s.AppendAnswer("ボケ太郎", "社長が猫", Judgment{}, false)
	if _, err := s.Finish(hostID); err != nil {
		t.Fatalf("should be able to finish: %v", err)
	}

	if err := s.Reset("not-the-host"); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := s.Reset(hostID); err != nil {
		t.Fatalf("should be able to reset: %v", err)
	}
	if s.Phase() != PhaseIdle {
		t.Fatalf("expected phase %s after reset, got %s", PhaseIdle, s.Phase())
	}
	if s.Topic() != "" || len(s.Candidates()) != 0 || len(s.AnswerViews()) != 0 {
		t.Fatal("reset should clear topic, candidates and answers")
	}
	if s.HostConnID() != hostID {
		t.Fatal("reset should keep the host slot")
	}

	// Reset from Idle is a no-op error
	if err := s.Reset(hostID); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}

	// A fresh round can start after reset
	if err := s.BeginTopicRound(hostID); err != nil {
		t.Fatalf("should be able to begin a new round after reset: %v", err)
	}
}

func TestNoEligibleResult(t *testing.T) {
	r := NoEligibleResult()
	if r.GrandPrix.Nickname != "該当なし" || r.PivotAward.Nickname != "該当なし" {
		t.Fatal("sentinel result should use the 該当なし placeholder nickname")
	}
	if r.GrandPrix.Deviation != "-" || r.GrandPrix.Reason != "回答がありませんでした" {
		t.Fatalf("unexpected sentinel fields: %+v", r.GrandPrix)
	}
}
