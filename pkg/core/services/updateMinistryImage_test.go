package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/scheduler"
)

func TestUpdateMinistryImageAcceptsDataURI(t *testing.T) {
	store := newMockStore(fixtureSnapshot())

	err := UpdateMinistryImage(context.Background(), store, zap.NewNop(), "leader-1", "min-louvor", "data:image/png;base64,iVBORw0KGgo=")

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", store.imageUpdates["min-louvor"])
}

func TestUpdateMinistryImageRejectsPlainHTTP(t *testing.T) {
	store := newMockStore(fixtureSnapshot())

	err := UpdateMinistryImage(context.Background(), store, zap.NewNop(), "leader-1", "min-louvor", "http://example.com/cover.png")

	var vErr *scheduler.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Empty(t, store.imageUpdates)
}

func TestUpdateMinistryImageRequiresLeadership(t *testing.T) {
	store := newMockStore(fixtureSnapshot())

	err := UpdateMinistryImage(context.Background(), store, zap.NewNop(), "member-1", "min-louvor", "https://example.com/cover.png")

	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestUpdateMinistryImageUnknownMinistry(t *testing.T) {
	store := newMockStore(fixtureSnapshot())

	err := UpdateMinistryImage(context.Background(), store, zap.NewNop(), "leader-1", "min-missing", "https://example.com/cover.png")

	assert.ErrorIs(t, err, ErrMinistryNotFound)
}
