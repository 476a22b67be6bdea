package docker

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NamePrefix is used for all ctfdocker container names.
const NamePrefix = "ctfdocker"

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// ContainerName returns a unique Docker container name for a fixture:
// ctfdocker-<fixture>-<8 hex chars>. Characters Docker rejects in names are
// collapsed to '-'; an empty fixture name yields ctfdocker-<8 hex chars>.
func ContainerName(fixture string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	cleaned := strings.Trim(invalidNameChars.ReplaceAllString(fixture, "-"), "-._")
	if cleaned == "" {
		return NamePrefix + "-" + suffix
	}
	return NamePrefix + "-" + strings.ToLower(cleaned) + "-" + suffix
}
