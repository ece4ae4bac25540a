package game

const (
	maxRounds   = 50
	maxTimerSec = 3600
)

// Settings are frozen once a game starts.
type Settings struct {
	Rounds             int `json:"rounds"`
	AnswerTimerSec     int `json:"answerTimerSec"`
	DiscussionTimerSec int `json:"discussionTimerSec"`
	VoteTimerSec       int `json:"voteTimerSec"`
}

// SettingsOverride carries the optional values a host may send with game:start.
type SettingsOverride struct {
	Rounds             *int `json:"rounds,omitempty"`
	AnswerTimerSec     *int `json:"answerTimerSec,omitempty"`
	DiscussionTimerSec *int `json:"discussionTimerSec,omitempty"`
	VoteTimerSec       *int `json:"voteTimerSec,omitempty"`
}

func (s Settings) valid() bool {
	return between(s.Rounds, 1, maxRounds) &&
		between(s.AnswerTimerSec, 1, maxTimerSec) &&
		between(s.DiscussionTimerSec, 1, maxTimerSec) &&
		between(s.VoteTimerSec, 1, maxTimerSec)
}

func between(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

// apply returns s with every non-nil field of o copied over.
func (s Settings) apply(o *SettingsOverride) (Settings, error) {
	if o != nil {
		for _, f := range []struct {
			src *int
			dst *int
		}{
			{o.Rounds, &s.Rounds},
			{o.AnswerTimerSec, &s.AnswerTimerSec},
			{o.DiscussionTimerSec, &s.DiscussionTimerSec},
			{o.VoteTimerSec, &s.VoteTimerSec},
		} {
			if f.src != nil {
				*f.dst = *f.src
			}
		}
	}

	if !s.valid() {
		return s, ErrInvalidSettings
	}

	return s, nil
}
