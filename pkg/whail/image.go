package whail

import (
	"context"
)

// ImageRemove removes an image.
// Images are usually built outside the engine, so removal is not label-gated.
func (e *Engine) ImageRemove(ctx context.Context, imageID string, opts ImageRemoveOptions) (ImageRemoveResult, error) {
	resp, err := e.APIClient.ImageRemove(ctx, imageID, opts)
	if err != nil {
		return ImageRemoveResult{}, ErrImageRemoveFailed(imageID, err)
	}
	return resp, nil
}
