// Package whail re-exports Docker SDK types as aliases.
// This allows higher-level packages to use these types without importing moby/client directly.
package whail

import (
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
)

// Type aliases for Docker SDK types.
// These allow packages to use whail as their single import for Docker interactions.
type (
	// Filters wraps Docker client.Filters for filtering resources.
	Filters = client.Filters

	// Container operation options and results.
	ContainerCreateOptions = client.ContainerCreateOptions
	ContainerCreateResult  = client.ContainerCreateResult
	ContainerAttachOptions = client.ContainerAttachOptions
	ContainerLogsOptions   = client.ContainerLogsOptions
	ContainerInspectResult = client.ContainerInspectResult
	ContainerSummary       = container.Summary

	// Exec operation options and results.
	ExecCreateOptions = client.ExecCreateOptions
	ExecCreateResult  = client.ExecCreateResult
	ExecStartOptions  = client.ExecStartOptions
	ExecAttachOptions = client.ExecAttachOptions
	ExecInspectResult = client.ExecInspectResult

	// Copy operation options.
	CopyToContainerOptions = client.CopyToContainerOptions

	// Image operation options and results.
	ImageRemoveOptions = client.ImageRemoveOptions
	ImageRemoveResult  = client.ImageRemoveResult

	// Connection types.
	HijackedResponse = client.HijackedResponse

	// Container configuration types.
	ContainerConfig = container.Config
	HostConfig      = container.HostConfig
	InspectResponse = container.InspectResponse
)
