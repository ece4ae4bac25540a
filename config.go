/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/impostor/internal/game"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const maxPhaseTimer = time.Hour

type Config struct {
	allowedOrigin   string
	answerTimer     time.Duration
	archiveTTL      time.Duration
	bind            string
	discussionTimer time.Duration
	gracePeriod     time.Duration
	groupPoints     int
	impostorPoints  int
	maxPlayers      int
	minPlayers      int
	port            int
	prefix          string
	profile         bool
	questions       string
	redisAddr       string
	redisDB         int
	redisPassword   string
	resultsDelay    time.Duration
	rounds          int
	sessionTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool
	voteTimer       time.Duration
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.minPlayers < game.DefaultMinPlayers {
		return fmt.Errorf("invalid --min-players (must be at least %d): %d", game.DefaultMinPlayers, c.minPlayers)
	}
	if c.maxPlayers != 0 && c.maxPlayers < c.minPlayers {
		return fmt.Errorf("invalid --max-players (must be 0 or at least --min-players): %d", c.maxPlayers)
	}
	if c.rounds < 1 || c.rounds > 50 {
		return fmt.Errorf("invalid --rounds (must be between 1-50 inclusive): %d", c.rounds)
	}

	for name, d := range map[string]time.Duration{
		"answer-timer":     c.answerTimer,
		"discussion-timer": c.discussionTimer,
		"vote-timer":       c.voteTimer,
	} {
		if d < time.Second || d > maxPhaseTimer || d%time.Second != 0 {
			return fmt.Errorf("invalid --%s (must be whole seconds between 1s and %s): %s", name, maxPhaseTimer, d)
		}
	}

	if c.gracePeriod <= 0 || c.resultsDelay <= 0 {
		return errors.New("--grace-period and --results-delay must be positive")
	}
	if c.sessionTimeout < 0 || c.archiveTTL < 0 {
		return errors.New("--session-timeout and --archive-ttl cannot be negative")
	}
	if c.groupPoints < 1 || c.impostorPoints < 1 {
		return errors.New("--group-points and --impostor-points must be positive")
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) settings() game.Settings {
	return game.Settings{
		Rounds:             c.rounds,
		AnswerTimerSec:     int(c.answerTimer / time.Second),
		DiscussionTimerSec: int(c.discussionTimer / time.Second),
		VoteTimerSec:       int(c.voteTimer / time.Second),
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("IMPOSTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "impostor",
		Short:         "Serves a real-time party game where one player secretly gets a different question.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.allowedOrigin, "allowed-origin", "", "only accept websocket connections from this origin (env: IMPOSTOR_ALLOWED_ORIGIN)")
	fs.DurationVar(&cfg.answerTimer, "answer-timer", 30*time.Second, "default time allowed for answers (env: IMPOSTOR_ANSWER_TIMER)")
	fs.DurationVar(&cfg.archiveTTL, "archive-ttl", 30*24*time.Hour, "how long finished games are kept in redis, 0 for forever (env: IMPOSTOR_ARCHIVE_TTL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: IMPOSTOR_BIND)")
	fs.DurationVar(&cfg.discussionTimer, "discussion-timer", 120*time.Second, "default time allowed for discussion (env: IMPOSTOR_DISCUSSION_TIMER)")
	fs.DurationVar(&cfg.gracePeriod, "grace-period", game.DefaultGracePeriod, "time a disconnected player's seat is held (env: IMPOSTOR_GRACE_PERIOD)")
	fs.IntVar(&cfg.groupPoints, "group-points", game.DefaultGroupPoints, "points each player earns when the impostor is caught (env: IMPOSTOR_GROUP_POINTS)")
	fs.IntVar(&cfg.impostorPoints, "impostor-points", game.DefaultImpostorPoints, "points the impostor earns when not caught (env: IMPOSTOR_IMPOSTOR_POINTS)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 0, "maximum connected players per room, 0 for no limit (env: IMPOSTOR_MAX_PLAYERS)")
	fs.IntVar(&cfg.minPlayers, "min-players", game.DefaultMinPlayers, "minimum connected players needed to start (env: IMPOSTOR_MIN_PLAYERS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: IMPOSTOR_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: IMPOSTOR_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: IMPOSTOR_PROFILE)")
	fs.StringVar(&cfg.questions, "questions", "", "path to a yaml question catalog to use instead of the built-in one (env: IMPOSTOR_QUESTIONS)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "redis address for archiving finished games, empty to disable (env: IMPOSTOR_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: IMPOSTOR_REDIS_DB)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "redis password (env: IMPOSTOR_REDIS_PASSWORD)")
	fs.DurationVar(&cfg.resultsDelay, "results-delay", game.DefaultResultsDelay, "time results are shown before the next round (env: IMPOSTOR_RESULTS_DELAY)")
	fs.IntVar(&cfg.rounds, "rounds", 5, "default number of rounds per game (env: IMPOSTOR_ROUNDS)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are closed, 0 to disable (env: IMPOSTOR_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: IMPOSTOR_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: IMPOSTOR_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: IMPOSTOR_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: IMPOSTOR_VERSION)")
	fs.DurationVar(&cfg.voteTimer, "vote-timer", 15*time.Second, "default time allowed for voting (env: IMPOSTOR_VOTE_TIMER)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("impostor v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
