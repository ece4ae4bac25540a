package game

import (
	"testing"
	"time"

	clockMocks "github.com/Seednode/impostor/internal/common/clock/mocks"
	uuidMocks "github.com/Seednode/impostor/internal/common/uuid/mocks"
	"github.com/Seednode/impostor/internal/questions"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RegistryTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	mockUUID *uuidMocks.MockUUID
	clock    *clockMocks.MockClock
	catalog  *questions.Catalog
	testNow  time.Time
}

func (s *RegistryTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockUUID = uuidMocks.NewMockUUID(s.ctrl)
	s.clock = clockMocks.NewMockClock(s.ctrl)
	s.testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	catalog, err := questions.Default()
	s.Require().NoError(err)
	s.catalog = catalog

	s.clock.EXPECT().Now().Return(s.testNow).AnyTimes()
}

func (s *RegistryTestSuite) newRegistry(src *fixedSource, modify func(*Config)) *Registry {
	cfg := &Config{
		Catalog:        s.catalog,
		Clock:          s.clock,
		UUID:           s.mockUUID,
		Random:         src,
		SessionTimeout: time.Hour,
	}
	if modify != nil {
		modify(cfg)
	}

	reg, err := NewRegistry(cfg)
	s.Require().NoError(err)
	s.T().Cleanup(reg.Shutdown)

	return reg
}

func (s *RegistryTestSuite) TestCreateRoom() {
	reg := s.newRegistry(&fixedSource{vals: []int{23456}}, nil)
	s.mockUUID.EXPECT().NewUUID().Return("room-1")

	out, err := reg.CreateRoom(&CreateRoomInput{HostID: "host-1", DisplayName: "Quiz Night"})
	s.Require().NoError(err)
	s.Equal(&CreateRoomOutput{RoomID: "room-1", Pin: "123456"}, out)

	room, err := reg.Room("123456")
	s.Require().NoError(err)
	s.Equal("host-1", room.HostID())
	s.Equal(PhaseLobby, room.Phase())
	s.Equal(1, reg.Len())
}

func (s *RegistryTestSuite) TestCreateRoomRequiresHost() {
	reg := s.newRegistry(&fixedSource{vals: []int{0}}, nil)

	_, err := reg.CreateRoom(&CreateRoomInput{DisplayName: "Quiz Night"})
	s.ErrorIs(err, ErrMissingHost)

	_, err = reg.CreateRoom(&CreateRoomInput{HostID: "host-1", DisplayName: " "})
	s.ErrorIs(err, ErrMissingHost)

	_, err = reg.CreateRoom(nil)
	s.ErrorIs(err, ErrMissingHost)
}

func (s *RegistryTestSuite) TestPinCollisionRedraws() {
	reg := s.newRegistry(&fixedSource{vals: []int{1, 1, 2}}, nil)
	s.mockUUID.EXPECT().NewUUID().Return("room-1")
	s.mockUUID.EXPECT().NewUUID().Return("room-2")

	first, err := reg.CreateRoom(&CreateRoomInput{HostID: "a", DisplayName: "A"})
	s.Require().NoError(err)
	second, err := reg.CreateRoom(&CreateRoomInput{HostID: "b", DisplayName: "B"})
	s.Require().NoError(err)

	s.Equal("100001", first.Pin)
	s.Equal("100002", second.Pin)
}

func (s *RegistryTestSuite) TestPinExhaustion() {
	reg := s.newRegistry(&fixedSource{vals: []int{7}}, nil)
	s.mockUUID.EXPECT().NewUUID().Return("room-1")

	_, err := reg.CreateRoom(&CreateRoomInput{HostID: "a", DisplayName: "A"})
	s.Require().NoError(err)

	_, err = reg.CreateRoom(&CreateRoomInput{HostID: "b", DisplayName: "B"})
	s.ErrorIs(err, ErrPinUnavailable)
	s.Equal(1, reg.Len())
}

func (s *RegistryTestSuite) TestLookup() {
	reg := s.newRegistry(&fixedSource{vals: []int{5}}, nil)
	s.mockUUID.EXPECT().NewUUID().Return("room-1")

	_, err := reg.Lookup("999999")
	s.ErrorIs(err, ErrRoomNotFound)

	out, err := reg.CreateRoom(&CreateRoomInput{HostID: "a", DisplayName: "A"})
	s.Require().NoError(err)

	summary, err := reg.Lookup(out.Pin)
	s.Require().NoError(err)
	s.Equal("room-1", summary.ID)
	s.Equal(PhaseLobby, summary.Phase)
	s.Equal(DefaultSettings, summary.Settings)
	s.Empty(summary.Players)
}

func (s *RegistryTestSuite) TestReapIdleRooms() {
	reg := s.newRegistry(&fixedSource{vals: []int{5}}, nil)
	s.mockUUID.EXPECT().NewUUID().Return("room-1")

	out, err := reg.CreateRoom(&CreateRoomInput{HostID: "a", DisplayName: "A"})
	s.Require().NoError(err)

	room, err := reg.Room(out.Pin)
	s.Require().NoError(err)

	host := &fakeConn{}
	s.Require().NoError(room.HostJoin(host, "a"))

	s.Zero(reg.reap(s.testNow.Add(30 * time.Minute)))
	s.Equal(1, reg.Len())

	s.Equal(1, reg.reap(s.testNow.Add(61*time.Minute)))
	s.Zero(reg.Len())
	s.IsType(ErrorEvent{}, host.closedWith())

	_, err = reg.Room(out.Pin)
	s.ErrorIs(err, ErrRoomNotFound)
	s.ErrorIs(room.Join(&fakeConn{}, &JoinInput{UserID: "p1", DisplayName: "P1"}), ErrRoomNotFound)
}

func (s *RegistryTestSuite) TestShutdownClosesRooms() {
	reg := s.newRegistry(&fixedSource{vals: []int{5}}, nil)
	s.mockUUID.EXPECT().NewUUID().Return("room-1")
	reg.Start()

	out, err := reg.CreateRoom(&CreateRoomInput{HostID: "a", DisplayName: "A"})
	s.Require().NoError(err)

	room, err := reg.Room(out.Pin)
	s.Require().NoError(err)

	host := &fakeConn{}
	s.Require().NoError(room.HostJoin(host, "a"))

	reg.Shutdown()
	reg.Shutdown()

	s.Zero(reg.Len())
	s.NotNil(host.closedWith())
}

func (s *RegistryTestSuite) TestConfigValidation() {
	_, err := NewRegistry(nil)
	s.ErrorIs(err, ErrNilConfig)

	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"missing catalog", func(c *Config) { c.Catalog = nil }, ErrNilCatalog},
		{"too few players", func(c *Config) { c.MinPlayers = 2 }, ErrMinPlayers},
		{"cap below minimum", func(c *Config) { c.MinPlayers = 4; c.MaxPlayers = 3 }, ErrMaxPlayers},
		{"negative grace", func(c *Config) { c.GracePeriod = -time.Second }, ErrInvalidTimers},
		{"bad defaults", func(c *Config) { c.DefaultSettings = Settings{Rounds: 0, AnswerTimerSec: 1, DiscussionTimerSec: 1, VoteTimerSec: 1} }, ErrInvalidSettings},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			cfg := &Config{Catalog: s.catalog}
			tt.modify(cfg)

			_, err := NewRegistry(cfg)
			s.ErrorIs(err, tt.err)
		})
	}
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
