// Package docker provides ctfdocker-specific Docker middleware.
// It wraps pkg/whail with ctfdocker's label conventions and naming schemes.
package docker

import (
	"time"
)

// DefaultLabelPrefix is the label namespace used when none is configured.
const DefaultLabelPrefix = "com.ctfdocker"

// Label names, relative to the configured prefix.
const (
	// LabelImage stores the image a fixture container was created from.
	LabelImage = "image"

	// LabelFixture stores the fixture name given by the test step.
	LabelFixture = "fixture"

	// LabelVersion stores the ctfdocker version that created the container.
	LabelVersion = "version"

	// LabelCreated stores the creation timestamp.
	LabelCreated = "created"
)

// EngineManagedLabel is the managed label key suffix for whail.EngineOptions.
const EngineManagedLabel = "managed"

// Labels builds label keys under a prefix such as "com.ctfdocker".
type Labels struct {
	Prefix string
}

// Key returns the fully qualified label key for name.
func (l Labels) Key(name string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultLabelPrefix
	}
	return prefix + "." + name
}

// Container returns labels for a new fixture container.
func (l Labels) Container(image, fixture string) map[string]string {
	labels := map[string]string{
		l.Key(LabelImage):   image,
		l.Key(LabelCreated): time.Now().Format(time.RFC3339),
	}
	if fixture != "" {
		labels[l.Key(LabelFixture)] = fixture
	}
	return labels
}
