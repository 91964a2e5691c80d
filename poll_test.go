package reddit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollOption(t *testing.T) {
	opt, err := NewPollOption(map[string]any{"id": "anID", "text": "Yes", "vote_count": float64(12)})
	require.NoError(t, err)
	assert.Equal(t, "anID", opt.ID)
	assert.Equal(t, 12, opt.VoteCount)
	assert.Equal(t, "Yes", opt.String())
	assert.Equal(t, "PollOption(id='anID')", fmt.Sprintf("%#v", opt))

	other, _ := NewPollOption(map[string]any{"id": "anID", "text": "Different"})
	assert.True(t, opt.Equal(other))
	assert.False(t, opt.Equal(nil))
}

func TestPollOptionInvalid(t *testing.T) {
	_, err := NewPollOption(map[string]any{"text": "Yes"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = NewPollOption(map[string]any{"id": "anID"})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestPollOptionRoundTrip(t *testing.T) {
	opt := &PollOption{ID: "anID", Text: "Yes", VoteCount: 3}
	for _, format := range Formats {
		t.Run(format.String(), func(t *testing.T) {
			raw, err := Encode(format, opt)
			require.NoError(t, err)
			var decoded PollOption
			require.NoError(t, Decode(format, raw, &decoded))
			assert.Equal(t, *opt, decoded)
		})
	}
}

func TestPollData(t *testing.T) {
	pd, err := NewPollData(map[string]any{
		"options": []any{
			map[string]any{"id": "1", "text": "Yes", "vote_count": float64(7)},
			map[string]any{"id": "2", "text": "No", "vote_count": float64(3)},
		},
		"total_vote_count":     float64(10),
		"user_selection":       "2",
		"voting_end_timestamp": float64(1600000000000),
	})
	require.NoError(t, err)
	require.Len(t, pd.Options, 2)
	assert.Equal(t, 10, pd.TotalVoteCount)
	assert.True(t, time.Time(pd.VotingEndTimestamp).Equal(time.UnixMilli(1600000000000)))

	selected := pd.UserSelected()
	require.NotNil(t, selected)
	assert.Equal(t, "No", selected.Text)

	_, err = pd.Option("3")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestPollDataInvalidOption(t *testing.T) {
	_, err := NewPollData(map[string]any{"options": []any{"nope"}})
	assert.ErrorIs(t, err, ErrInvalidValue)

	pd, err := NewPollData(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, pd.UserSelected())
}
