/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Seednode/impostor/internal/archive"
	"github.com/Seednode/impostor/internal/common/random"
	"github.com/Seednode/impostor/internal/questions"
)

const archiveTimeout = 5 * time.Second

// submissions maps player id to target id and remembers the order in which
// players first submitted. Re-submitting overwrites in place.
type submissions struct {
	order  []string
	target map[string]string
}

func newSubmissions() submissions {
	return submissions{target: make(map[string]string)}
}

func (s *submissions) set(id, target string) {
	if _, ok := s.target[id]; !ok {
		s.order = append(s.order, id)
	}
	s.target[id] = target
}

func (s *submissions) remove(id string) {
	if _, ok := s.target[id]; !ok {
		return
	}
	delete(s.target, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
}

func (s *submissions) len() int {
	return len(s.target)
}

func (s *submissions) each(f func(id, target string)) {
	for _, id := range s.order {
		f(id, s.target[id])
	}
}

type roundData struct {
	impostorID string
	pair       questions.Pair
	answers    submissions
	votes      submissions
}

// Start applies the host's settings and begins the first round.
func (r *Room) Start(requesterID string, override *SettingsOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.closed:
		return ErrRoomNotFound
	case requesterID != r.hostID:
		return ErrNotHost
	case r.phase != PhaseLobby:
		return ErrCannotStart
	case r.connectedCount() < r.env.MinPlayers:
		return ErrNotEnoughPlayers
	}

	settings, err := r.settings.apply(override)
	if err != nil {
		return err
	}
	r.settings = settings
	r.touch()

	r.env.Logf("GAMES: Starting %d round(s) with %d players in %s", settings.Rounds, len(r.players), r.pin)

	return r.startRound()
}

// SubmitAnswer records who playerID picked for the current prompt. Answers
// arriving after the phase moved on are dropped without complaint.
func (r *Room) SubmitAnswer(playerID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.acceptSubmission(PhaseAnswering, ErrNotAnswering, playerID, targetID)
	if !ok {
		return err
	}

	r.current.answers.set(playerID, targetID)
	r.broadcast(AnswersUpdate{Answers: r.answerViews()})
	r.checkCompletion()

	return nil
}

// SubmitVote records playerID's accusation.
func (r *Room) SubmitVote(playerID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.acceptSubmission(PhaseVoting, ErrNotVoting, playerID, targetID)
	if !ok {
		return err
	}

	r.current.votes.set(playerID, targetID)
	r.checkCompletion()

	return nil
}

func (r *Room) acceptSubmission(want Phase, wrongPhase Error, playerID, targetID string) (bool, error) {
	switch {
	case r.closed:
		return false, ErrRoomNotFound
	case r.phase != want && r.current != nil:
		return false, nil
	case r.phase != want:
		return false, wrongPhase
	}

	if _, ok := r.players[playerID]; !ok {
		return false, nil
	}
	if _, ok := r.players[targetID]; !ok {
		return false, ErrUnknownPlayer
	}

	r.touch()
	return true, nil
}

// SkipDiscussion lets the host cut the discussion short.
func (r *Room) SkipDiscussion(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.closed:
		return ErrRoomNotFound
	case requesterID != r.hostID:
		return ErrNotHost
	case r.phase != PhaseDiscussing:
		return ErrNotDiscussing
	}

	r.touch()
	r.startVoting()

	return nil
}

// transition cancels whatever the previous phase scheduled before moving on,
// so a timeout and an early completion can never both advance the room.
func (r *Room) transition(next Phase) bool {
	if !r.phase.CanTransitionTo(next) {
		r.env.Logf("GAMES: Ignoring transition %s -> %s in %s", r.phase, next, r.pin)
		return false
	}

	r.phaseTimer.cancel()
	r.countdown.stop()
	r.epoch++
	r.phase = next
	r.touch()

	return true
}

func (r *Room) after(d time.Duration, next func()) {
	epoch := r.epoch

	r.phaseTimer.set(r.env.Scheduler.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed || r.epoch != epoch {
			return
		}
		next()
	}))
}

// runPhase ticks the countdown and advances with next when the phase times
// out. Only the timeout announces zero; early exits stay silent.
func (r *Room) runPhase(seconds int, next func()) {
	r.countdown.start(r, seconds)
	r.after(time.Duration(seconds)*time.Second, func() {
		r.broadcast(TimerUpdate{SecondsLeft: 0})
		next()
	})
}

// abort returns the room to the lobby after a round could not start.
func (r *Room) abort(err error) {
	r.phaseTimer.cancel()
	r.countdown.stop()
	r.epoch++
	r.phase = PhaseLobby
	r.round = 0
	r.current = nil

	r.env.Logf("GAMES: Aborting round in %s: %v", r.pin, err)

	r.broadcast(ErrorEventFor(err))
	r.broadcastRoster()
}

func (r *Room) startRound() error {
	ids := slices.Clone(r.order)
	if len(ids) == 0 {
		r.abort(ErrNoPlayers)
		return ErrNoPlayers
	}

	random.Shuffle(r.env.Random, len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	impostorID := ids[r.env.Random.IntN(len(ids))]

	pair, err := r.env.Catalog.SelectPair(r.used, r.env.Random)
	if err != nil {
		r.abort(err)
		return err
	}

	if !r.transition(PhaseAnswering) {
		return ErrCannotStart
	}

	r.round++
	r.current = &roundData{
		impostorID: impostorID,
		pair:       pair,
		answers:    newSubmissions(),
		votes:      newSubmissions(),
	}

	r.env.Logf("GAMES: Round %d of %d started in %s", r.round, r.settings.Rounds, r.pin)

	r.broadcast(RoundStart{
		RoundNumber:  r.round,
		TimerSeconds: r.settings.AnswerTimerSec,
	})

	roster := r.rosterView()
	for _, id := range ids {
		r.sendPrompt(r.players[id], roster)
	}

	r.runPhase(r.settings.AnswerTimerSec, r.startDiscussion)

	return nil
}

// sendPrompt delivers a player's own prompt. The impostor prompt is only ever
// unicast.
func (r *Room) sendPrompt(p *Player, roster []PlayerView) {
	if p == nil || p.conn == nil || r.current == nil {
		return
	}

	impostor := p.ID == r.current.impostorID
	text := r.current.pair.Group.Text
	if impostor {
		text = r.current.pair.Impostor.Text
	}

	p.conn.Send(Prompt{
		Impostor: impostor,
		Text:     text,
		Players:  roster,
	})
}

func (r *Room) resendPrompt(id string) {
	if r.phase != PhaseAnswering {
		return
	}
	r.sendPrompt(r.players[id], r.rosterView())
}

// checkCompletion advances the phase once every rostered player, connected
// or not, has submitted. It runs after every submission and every removal.
func (r *Room) checkCompletion() {
	if r.current == nil {
		return
	}

	switch r.phase {
	case PhaseAnswering:
		if r.current.answers.len() >= len(r.players) {
			r.startDiscussion()
		}
	case PhaseVoting:
		if r.current.votes.len() >= len(r.players) {
			r.finishRound()
		}
	}
}

func (r *Room) startDiscussion() {
	if !r.transition(PhaseDiscussing) {
		return
	}

	r.broadcast(DiscussionStart{
		TimerSeconds: r.settings.DiscussionTimerSec,
		Question:     r.current.pair.Group.Text,
	})

	r.runPhase(r.settings.DiscussionTimerSec, r.startVoting)
}

func (r *Room) startVoting() {
	if !r.transition(PhaseVoting) {
		return
	}

	r.broadcast(VotingStart{
		TimerSeconds: r.settings.VoteTimerSec,
		Players:      r.rosterView(),
	})

	r.runPhase(r.settings.VoteTimerSec, r.finishRound)
}

type outcome struct {
	target string
	votes  int
	caught bool
}

// tally finds the most voted target. Among tied targets the one that was
// voted for first wins. The impostor is caught only by a strict majority of
// the connected players.
func tally(votes *submissions, impostorID string, connected int) outcome {
	counts := make(map[string]int)
	var seen []string

	votes.each(func(_, target string) {
		if counts[target] == 0 {
			seen = append(seen, target)
		}
		counts[target]++
	})

	var out outcome
	for _, target := range seen {
		if counts[target] > out.votes {
			out.target, out.votes = target, counts[target]
		}
	}

	out.caught = out.target != "" && out.target == impostorID && out.votes*2 > connected

	return out
}

func (r *Room) finishRound() {
	if !r.transition(PhaseResults) {
		return
	}

	rd := r.current
	out := tally(&rd.votes, rd.impostorID, r.connectedCount())

	if out.caught {
		for _, id := range r.order {
			if id != rd.impostorID {
				r.scores[id] += r.env.GroupPoints
			}
		}
	} else if _, ok := r.players[rd.impostorID]; ok {
		r.scores[rd.impostorID] += r.env.ImpostorPoints
	}

	votes := make([]VoteView, 0, rd.votes.len())
	rd.votes.each(func(id, target string) {
		votes = append(votes, VoteView{VoterID: id, TargetID: target})
	})

	r.env.Logf("GAMES: Round %d in %s: impostor %q caught=%t", r.round, r.pin, r.displayName(rd.impostorID), out.caught)

	r.broadcast(RoundResult{
		ImpostorID:       rd.impostorID,
		ImpostorCaught:   out.caught,
		ImpostorQuestion: rd.pair.Impostor.Text,
		Votes:            votes,
		Scores:           r.scoreList(),
	})

	r.after(r.env.ResultsDelay, r.nextRound)
}

func (r *Room) nextRound() {
	if r.round >= r.settings.Rounds {
		r.endGame()
		return
	}
	_ = r.startRound()
}

func (r *Room) endGame() {
	if !r.transition(PhaseEnded) {
		return
	}

	r.current = nil
	r.endedAt = r.env.Clock.Now()

	final := r.scoreList()
	slices.SortStableFunc(final, func(a, b ScoreEntry) int {
		return cmp.Compare(b.Score, a.Score)
	})

	r.env.Logf("GAMES: Game over in %s after %d round(s)", r.pin, r.round)

	r.broadcast(GameEnd{FinalScores: final})
	r.archive(final)
}

func (r *Room) archive(final []ScoreEntry) {
	if r.env.Archive == nil {
		return
	}

	game := &archive.Game{
		ID:      r.id,
		Pin:     r.pin,
		Rounds:  r.round,
		EndedAt: r.endedAt,
		Scores:  make([]archive.Score, 0, len(final)),
	}
	for _, s := range final {
		game.Scores = append(game.Scores, archive.Score{
			UserID:      s.UserID,
			DisplayName: s.DisplayName,
			Score:       s.Score,
		})
	}

	repo, logf, pin := r.env.Archive, r.env.Logf, r.pin
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := repo.SaveGame(ctx, &archive.SaveGameInput{Game: game}); err != nil {
			logf("ERROR: Archiving game %s: %v", pin, err)
		}
	}()
}

func (r *Room) answerViews() []AnswerView {
	out := make([]AnswerView, 0, r.current.answers.len())
	r.current.answers.each(func(id, target string) {
		out = append(out, AnswerView{
			PlayerID:   id,
			PlayerName: r.displayName(id),
			TargetID:   target,
			TargetName: r.displayName(target),
		})
	})
	return out
}
