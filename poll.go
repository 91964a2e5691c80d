package reddit

import (
	"fmt"

	"github.com/go-openapi/strfmt"
)

// PollOption is one choice of a poll. It is always fully populated and never fetches.
type PollOption struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	VoteCount int    `json:"vote_count" yaml:"vote_count"`
}

// NewPollOption builds an option from its mapping ({"id", "text", "vote_count"}).
func NewPollOption(data map[string]any) (*PollOption, error) {
	id, err := dataID(data)
	if err != nil {
		return nil, err
	}
	text, ok := toString(data["text"])
	if !ok {
		return nil, newValueError("data", "mapping has no string 'text' field")
	}
	count, _ := toInt(data["vote_count"])
	return &PollOption{ID: id, Text: text, VoteCount: count}, nil
}

func (o *PollOption) String() string { return o.Text }

func (o *PollOption) GoString() string {
	return fmt.Sprintf("PollOption(id='%s')", o.ID)
}

// Equal compares option ids.
func (o *PollOption) Equal(other *PollOption) bool {
	return o != nil && other != nil && o.ID == other.ID
}

// PollData is the poll attached to a submission.
type PollData struct {
	Options            []*PollOption
	TotalVoteCount     int
	UserSelection      string
	VotingEndTimestamp strfmt.DateTime
}

// NewPollData builds poll data from a submission's "poll_data" mapping.
func NewPollData(data map[string]any) (*PollData, error) {
	pd := &PollData{}
	if raw, ok := data["options"].([]any); ok {
		for i, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, newValueError("options", fmt.Sprintf("entry %d is not a mapping", i))
			}
			opt, err := NewPollOption(m)
			if err != nil {
				return nil, fmt.Errorf("poll option %d: %w", i, err)
			}
			pd.Options = append(pd.Options, opt)
		}
	}
	pd.TotalVoteCount, _ = toInt(data["total_vote_count"])
	pd.UserSelection, _ = toString(data["user_selection"])
	if end, ok := toDateTime(data["voting_end_timestamp"], true); ok {
		pd.VotingEndTimestamp = end
	}
	return pd, nil
}

// Option returns the option with the given id.
func (pd *PollData) Option(id string) (*PollOption, error) {
	for _, o := range pd.Options {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, newValueError("option_id", fmt.Sprintf("no poll option with id %q", id))
}

// UserSelected returns the option the current user voted for, or nil.
func (pd *PollData) UserSelected() *PollOption {
	if pd.UserSelection == "" {
		return nil
	}
	o, _ := pd.Option(pd.UserSelection)
	return o
}
