package whail

import (
	"errors"
	"fmt"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
)

// DockerError represents a user-friendly Docker error with remediation steps.
// It wraps underlying Docker SDK errors with context and actionable guidance.
type DockerError struct {
	Op        string   // Operation that failed (e.g., "connect", "create", "exec")
	Err       error    // Underlying error
	Message   string   // Human-readable message
	NextSteps []string // Suggested remediation steps
}

func (e *DockerError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DockerError) Unwrap() error {
	return e.Err
}

// FormatUserError formats the error for display to users with next steps.
func (e *DockerError) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Message))

	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", e.Err.Error()))
	}

	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return sb.String()
}

// IsNotFound reports whether err is a not-found error, either from the daemon
// or from the engine refusing an unmanaged container.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var de *DockerError
	if errors.As(err, &de) && de.Op == "find" {
		return true
	}
	return cerrdefs.IsNotFound(err)
}

// ErrDockerNotRunning returns an error for when Docker daemon is not accessible.
func ErrDockerNotRunning(err error) *DockerError {
	return &DockerError{
		Op:      "connect",
		Err:     err,
		Message: "Cannot connect to Docker daemon",
		NextSteps: []string{
			"Ensure Docker is installed",
			"Start Docker Desktop (macOS/Windows) or run 'sudo systemctl start docker' (Linux)",
			"Check if Docker socket is accessible: ls -la /var/run/docker.sock",
			"Verify DOCKER_HOST points at a running daemon",
		},
	}
}

// ErrImageRemoveFailed returns an error for when an image cannot be removed.
func ErrImageRemoveFailed(image string, err error) *DockerError {
	return &DockerError{
		Op:      "image_remove",
		Err:     err,
		Message: fmt.Sprintf("Failed to remove image '%s'", image),
		NextSteps: []string{
			"Check whether other containers still use the image: docker ps -a",
			"Retry with force enabled",
		},
	}
}

// ErrContainerNotFound returns an error for when a container cannot be found.
func ErrContainerNotFound(name string) *DockerError {
	return &DockerError{
		Op:      "find",
		Err:     nil,
		Message: fmt.Sprintf("Container '%s' not found", name),
		NextSteps: []string{
			"Check if the container was started",
			"Check all containers: docker ps -a",
		},
	}
}

// ErrContainerCreateFailed returns an error for when container creation fails.
func ErrContainerCreateFailed(err error) *DockerError {
	return &DockerError{
		Op:      "create",
		Err:     err,
		Message: "Failed to create container",
		NextSteps: []string{
			"Check if the image exists: docker image ls",
			"Verify volume mount paths are valid",
			"Check for conflicting container names",
		},
	}
}

// ErrContainerStartFailed returns an error for when a container fails to start.
func ErrContainerStartFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "start",
		Err:     err,
		Message: fmt.Sprintf("Failed to start container '%s'", name),
		NextSteps: []string{
			"Check container logs: docker logs " + name,
			"Verify the image entrypoint is valid",
			"Check for port conflicts",
		},
	}
}

// ErrContainerKillFailed returns an error for when a container cannot be killed.
func ErrContainerKillFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "kill",
		Err:     err,
		Message: fmt.Sprintf("Failed to kill container '%s'", name),
		NextSteps: []string{
			"Check if the container is still running: docker ps",
		},
	}
}

// ErrContainerRemoveFailed returns an error for when container removal fails.
func ErrContainerRemoveFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "remove",
		Err:     err,
		Message: fmt.Sprintf("Failed to remove container '%s'", name),
		NextSteps: []string{
			"Check if the container exists",
			"Verify the container is not running",
			"Check for devices or mounts still held by the container",
		},
	}
}

// ErrContainerInspectFailed returns an error for when container inspection fails.
func ErrContainerInspectFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "inspect",
		Err:     err,
		Message: fmt.Sprintf("Failed to inspect container '%s'", name),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
		},
	}
}

// ErrContainerLogsFailed returns an error for when container logs cannot be read.
func ErrContainerLogsFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "logs",
		Err:     err,
		Message: fmt.Sprintf("Failed to get logs for container '%s'", name),
		NextSteps: []string{
			"Check the container logging driver supports reading: docker inspect " + name,
		},
	}
}

// ErrAttachFailed returns an error for when attaching to a container fails.
func ErrAttachFailed(err error) *DockerError {
	return &DockerError{
		Op:      "attach",
		Err:     err,
		Message: "Failed to attach to container",
		NextSteps: []string{
			"Verify the container exists",
		},
	}
}

// ErrContainerListFailed returns an error for when listing containers fails.
func ErrContainerListFailed(err error) *DockerError {
	return &DockerError{
		Op:      "list",
		Err:     err,
		Message: "Failed to list containers",
	}
}

// ErrContainerExecFailed returns an error for when an exec instance cannot be created or started.
func ErrContainerExecFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "exec",
		Err:     err,
		Message: fmt.Sprintf("Failed to execute command in container '%s'", name),
		NextSteps: []string{
			"Verify the container is running: docker ps",
			"Check the command exists in the image",
		},
	}
}

// ErrExecAttachFailed returns an error for when attaching to an exec instance fails.
func ErrExecAttachFailed(execID string, err error) *DockerError {
	return &DockerError{
		Op:      "exec_attach",
		Err:     err,
		Message: fmt.Sprintf("Failed to attach to exec instance '%s'", execID),
	}
}

// ErrExecInspectFailed returns an error for when an exec instance cannot be inspected.
func ErrExecInspectFailed(execID string, err error) *DockerError {
	return &DockerError{
		Op:      "exec_inspect",
		Err:     err,
		Message: fmt.Sprintf("Failed to inspect exec instance '%s'", execID),
	}
}

// ErrCopyToContainerFailed returns an error for when copying to a container fails.
func ErrCopyToContainerFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "copy_to",
		Err:     err,
		Message: fmt.Sprintf("Failed to copy files to container '%s'", name),
		NextSteps: []string{
			"Verify the destination directory exists in the container",
			"Check the container is not running with a read-only filesystem",
		},
	}
}
