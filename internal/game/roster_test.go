package game

import (
	"time"
)

func (s *RoomTestSuite) TestJoinBroadcastsRoster() {
	s.join("p1")

	update, ok := s.host.last("room:update").(RoomUpdate)
	s.Require().True(ok)
	s.Equal(PhaseLobby, update.Phase)
	s.Require().Len(update.Players, 1)
	s.Equal(PlayerView{ID: "p1", DisplayName: "Player p1", Status: StatusConnected}, update.Players[0])

	joined, ok := s.conns["p1"].last("room:joined").(RoomJoined)
	s.Require().True(ok)
	s.Equal(s.room.Pin(), joined.Pin)
	s.Equal(s.room.ID(), joined.RoomID)
}

func (s *RoomTestSuite) TestJoinValidation() {
	c := &fakeConn{}

	s.ErrorIs(s.room.Join(c, &JoinInput{DisplayName: "Alice"}), ErrUserIDRequired)
	s.ErrorIs(s.room.Join(c, &JoinInput{UserID: "p1", DisplayName: "   "}), ErrNameRequired)
	s.ErrorIs(s.room.HostJoin(c, "p1"), ErrNotHost)
}

func (s *RoomTestSuite) TestDisplayNamesAreUnique() {
	alice := &fakeConn{}
	s.Require().NoError(s.room.Join(alice, &JoinInput{UserID: "p1", DisplayName: "Alice"}))

	s.ErrorIs(s.room.Join(&fakeConn{}, &JoinInput{UserID: "p2", DisplayName: " alice "}), ErrNameTaken)

	s.room.Disconnect(alice)

	err := s.room.Join(&fakeConn{}, &JoinInput{UserID: "p2", DisplayName: "ALICE"})
	s.ErrorIs(err, ErrNameReserved)

	ev := ErrorEventFor(err)
	s.Equal("name_reserved", ev.Code)
	s.True(ev.Retry)

	// The owner of the name can always come back under it.
	s.NoError(s.room.Join(&fakeConn{}, &JoinInput{UserID: "p1", DisplayName: "Alice"}))
}

func (s *RoomTestSuite) TestRoomFull() {
	s.setup(func(c *Config) { c.MaxPlayers = 3 })
	s.join("p1", "p2", "p3")

	s.ErrorIs(s.room.Join(&fakeConn{}, &JoinInput{UserID: "p4", DisplayName: "Dave"}), ErrRoomFull)

	// Returning players are not new seats.
	s.NoError(s.room.Join(&fakeConn{}, &JoinInput{UserID: "p3", DisplayName: "Player p3"}))
}

func (s *RoomTestSuite) TestJoinDuringGame() {
	s.join("p1", "p2", "p3")
	s.start(nil)

	s.ErrorIs(s.room.Join(&fakeConn{}, &JoinInput{UserID: "p4", DisplayName: "Dave"}), ErrGameInProgress)

	// Names are only changed in the lobby.
	c := &fakeConn{}
	s.NoError(s.room.Join(c, &JoinInput{UserID: "p1", DisplayName: "Renamed"}))

	p, ok := s.room.Player("p1")
	s.Require().True(ok)
	s.Equal("Player p1", p.DisplayName)

	_, ok = c.lastPrompt()
	s.True(ok)
}

func (s *RoomTestSuite) TestRenameInLobby() {
	s.join("p1")
	s.NoError(s.room.Join(&fakeConn{}, &JoinInput{UserID: "p1", DisplayName: "Alice"}))

	p, ok := s.room.Player("p1")
	s.Require().True(ok)
	s.Equal("Alice", p.DisplayName)
	s.Len(s.room.Scores(), 1)
}

func (s *RoomTestSuite) TestRejoinResendsPrompt() {
	s.join("p1", "p2", "p3")
	s.start(nil)

	before, ok := s.conns["p1"].lastPrompt()
	s.Require().True(ok)

	s.room.Disconnect(s.conns["p1"])

	p, ok := s.room.Player("p1")
	s.Require().True(ok)
	s.Equal(StatusDisconnected, p.Status)
	s.False(p.DisconnectedAt.IsZero())

	update := s.host.last("room:update").(RoomUpdate)
	s.Equal(StatusDisconnected, update.Players[0].Status)

	c := &fakeConn{}
	s.NoError(s.room.Rejoin(c, &JoinInput{UserID: "p1"}))

	after, ok := c.lastPrompt()
	s.Require().True(ok)
	s.Equal(before.EventName(), after.EventName())
	s.Equal(before.Text, after.Text)
	s.Equal(1, c.count("room:joined"))

	p, _ = s.room.Player("p1")
	s.Equal(StatusConnected, p.Status)
	s.True(p.DisconnectedAt.IsZero())
}

func (s *RoomTestSuite) TestAnswerSurvivesReconnect() {
	s.join("p1", "p2", "p3")
	s.start(nil)

	s.NoError(s.room.SubmitAnswer("p1", "p2"))
	s.room.Disconnect(s.conns["p1"])
	s.NoError(s.room.Rejoin(&fakeConn{}, &JoinInput{UserID: "p1"}))

	s.NoError(s.room.SubmitAnswer("p2", "p3"))

	update, ok := s.host.last("answers:update").(AnswersUpdate)
	s.Require().True(ok)

	targets := map[string]string{}
	for _, a := range update.Answers {
		targets[a.PlayerID] = a.TargetID
	}
	s.Equal(map[string]string{"p1": "p2", "p2": "p3"}, targets)
	s.Equal(PhaseAnswering, s.room.Phase())
}

func (s *RoomTestSuite) TestDisconnectedPlayersStillCount() {
	s.join("p1", "p2", "p3")
	s.start(nil)

	s.NoError(s.room.SubmitAnswer("p3", "p1"))
	s.room.Disconnect(s.conns["p3"])

	s.NoError(s.room.SubmitAnswer("p1", "p2"))
	s.Equal(PhaseAnswering, s.room.Phase())

	s.NoError(s.room.SubmitAnswer("p2", "p1"))
	s.Equal(PhaseDiscussing, s.room.Phase())
}

func (s *RoomTestSuite) TestGracePeriodEviction() {
	s.join("p1", "p2", "p3")
	s.room.Disconnect(s.conns["p1"])

	s.sched.Advance(DefaultGracePeriod - time.Second)
	_, ok := s.room.Player("p1")
	s.True(ok)

	s.sched.Advance(time.Second)
	_, ok = s.room.Player("p1")
	s.False(ok)

	update := s.host.last("room:update").(RoomUpdate)
	s.Len(update.Players, 2)

	s.ErrorIs(s.room.Rejoin(&fakeConn{}, &JoinInput{UserID: "p1"}), ErrGracePeriodExpired)
}

func (s *RoomTestSuite) TestReconnectCancelsEviction() {
	s.join("p1", "p2", "p3")
	s.room.Disconnect(s.conns["p2"])

	s.sched.Advance(DefaultGracePeriod / 2)
	s.NoError(s.room.Rejoin(&fakeConn{}, &JoinInput{UserID: "p2"}))

	s.sched.Advance(2 * DefaultGracePeriod)

	p, ok := s.room.Player("p2")
	s.Require().True(ok)
	s.Equal(StatusConnected, p.Status)
}

func (s *RoomTestSuite) TestEvictionCompletesPhase() {
	s.join("p1", "p2", "p3")

	long := 3600
	s.start(&SettingsOverride{AnswerTimerSec: &long})

	s.NoError(s.room.SubmitAnswer("p1", "p2"))
	s.NoError(s.room.SubmitAnswer("p2", "p1"))
	s.room.Disconnect(s.conns["p3"])
	s.Equal(PhaseAnswering, s.room.Phase())

	s.sched.Advance(DefaultGracePeriod)
	s.Equal(PhaseDiscussing, s.room.Phase())
}

func (s *RoomTestSuite) TestIdentify() {
	s.join("p1", "p2", "p3")

	s.ErrorIs(s.room.Identify(&fakeConn{}, "ghost"), ErrNotInRoom)

	host := &fakeConn{}
	s.NoError(s.room.Identify(host, "host"))
	s.Equal(1, host.count("room:update"))

	s.room.Disconnect(s.conns["p2"])

	c := &fakeConn{}
	s.NoError(s.room.Identify(c, "p2"))

	p, ok := s.room.Player("p2")
	s.Require().True(ok)
	s.Equal(StatusConnected, p.Status)

	s.sched.Advance(2 * DefaultGracePeriod)
	_, ok = s.room.Player("p2")
	s.True(ok)
}
