package whail

import (
	"context"
)

// CopyToContainer copies content to a container.
// The content should be a tar archive.
// Only copies to managed containers.
func (e *Engine) CopyToContainer(ctx context.Context, containerID string, opts CopyToContainerOptions) error {
	if err := e.requireManaged(ctx, containerID, ErrCopyToContainerFailed); err != nil {
		return err
	}
	if _, err := e.APIClient.CopyToContainer(ctx, containerID, opts); err != nil {
		return ErrCopyToContainerFailed(containerID, err)
	}
	return nil
}
