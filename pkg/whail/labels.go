// Package whail provides a reusable Docker isolation library ("whale jail").
// It wraps the Docker SDK with automatic label-based resource isolation,
// ensuring operations only affect containers managed by a specific application.
package whail

import (
	"maps"

	"github.com/moby/moby/client"
)

// LabelConfig defines labels to apply to created containers.
// All labels are optional.
type LabelConfig struct {
	// Default labels applied to every container.
	Default map[string]string

	// Container-specific labels (merged over Default).
	Container map[string]string
}

// MergeLabels merges multiple label maps, with later maps overriding earlier ones.
// Returns a new map containing all labels.
func MergeLabels(labelMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range labelMaps {
		maps.Copy(result, m)
	}
	return result
}

// ContainerLabels returns the merged labels for containers.
func (c *LabelConfig) ContainerLabels(extra ...map[string]string) map[string]string {
	all := append([]map[string]string{c.Default, c.Container}, extra...)
	return MergeLabels(all...)
}

// LabelFilter creates a Docker filter for a single label key=value.
// The key should include the prefix (e.g., "com.myapp.managed").
func LabelFilter(key, value string) client.Filters {
	return client.Filters{}.Add("label", key+"="+value)
}

// MergeLabelFilters merges label filters into an existing client.Filters.
func MergeLabelFilters(f client.Filters, labels map[string]string) client.Filters {
	if f == nil {
		f = client.Filters{}
	}
	for k, v := range labels {
		f = f.Add("label", k+"="+v)
	}
	return f
}
