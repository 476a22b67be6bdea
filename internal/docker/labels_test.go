package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLabels_Key(t *testing.T) {
	assert.Equal(t, "com.ctfdocker.image", Labels{}.Key(LabelImage))
	assert.Equal(t, "org.example.fixture", Labels{Prefix: "org.example"}.Key(LabelFixture))
}

func TestLabels_Container(t *testing.T) {
	l := Labels{Prefix: "com.test"}

	labels := l.Container("alpine:3", "web")
	assert.Equal(t, "alpine:3", labels["com.test.image"])
	assert.Equal(t, "web", labels["com.test.fixture"])
	_, err := time.Parse(time.RFC3339, labels["com.test.created"])
	assert.NoError(t, err)

	unnamed := l.Container("alpine:3", "")
	assert.NotContains(t, unnamed, "com.test.fixture")
}
