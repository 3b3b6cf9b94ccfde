package eventbus

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDisabledBusDiscardsEvents(t *testing.T) {
	b := Disabled()
	id, err := uuid.NewV4()
	assert.NoError(t, err)
	assert.NoError(t, b.PublishFeedRefreshed(id))
	assert.NoError(t, b.PublishPostNew(id, id))
	b.Stop()
}
