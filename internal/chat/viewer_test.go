package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorlink/mentorship-platform/internal/model"
)

func TestNewViewerVariants(t *testing.T) {
	mentee, err := NewViewer(model.Profile{ID: "p1", Role: model.RoleMentee})
	require.NoError(t, err)
	_, ok := mentee.(Mentee)
	assert.True(t, ok)
	assert.Equal(t, "p1", mentee.ID())

	mentor, err := NewViewer(model.Profile{ID: "p2", Role: model.RoleMentor})
	require.NoError(t, err)
	_, ok = mentor.(Mentor)
	assert.True(t, ok)

	_, err = NewViewer(model.Profile{ID: "p3", Role: "admin"})
	assert.ErrorIs(t, err, ErrUnknownRole)
}
