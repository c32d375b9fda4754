package messages

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func TestMessages_AreTeaMessages(t *testing.T) {
	msgs := []tea.Msg{
		StateChanged{State: domain.SyncState{IsOnline: true}},
		RefreshCompleted{Err: errors.New("x")},
		QueueLoaded{},
		FlushCompleted{},
		AckCompleted{Dismissed: 2},
		ErrorOccurred{Err: errors.New("x")},
	}

	for _, m := range msgs {
		assert.NotNil(t, m)
	}
	assert.Equal(t, 2, msgs[4].(AckCompleted).Dismissed)
}
