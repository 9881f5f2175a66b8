// Package docker checks catalog images against the local Docker engine.
package docker

import (
	"context"
	"fmt"

	"defsync"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/client"
)

// Verifier reports whether catalog images are present in the local engine.
type Verifier struct {
	cli *client.Client
}

// NewVerifier creates a Verifier with a new Docker client from the environment.
func NewVerifier() (*Verifier, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Verifier{cli: cli}, nil
}

// NewVerifierFromClient wraps an existing Docker client.
func NewVerifierFromClient(cli *client.Client) *Verifier {
	return &Verifier{cli: cli}
}

func (v *Verifier) Close() error {
	if v == nil || v.cli == nil {
		return nil
	}
	return v.cli.Close()
}

// ImageStatus is the verification result for one catalog entry.
type ImageStatus struct {
	DockerRepository string
	DockerImageTag   string
	Present          bool
}

// Reference returns the repository:tag image reference.
func (s ImageStatus) Reference() string {
	return s.DockerRepository + ":" + s.DockerImageTag
}

// VerifyEntries inspects each entry's image locally. A missing image is a
// result, not an error; only engine communication failures abort.
func (v *Verifier) VerifyEntries(ctx context.Context, entries []defsync.CatalogEntry) ([]ImageStatus, error) {
	out := make([]ImageStatus, 0, len(entries))
	for _, entry := range entries {
		status := ImageStatus{
			DockerRepository: entry.DockerRepository,
			DockerImageTag:   entry.DockerImageTag,
		}
		_, err := v.cli.ImageInspect(ctx, status.Reference())
		switch {
		case err == nil:
			status.Present = true
		case errdefs.IsNotFound(err):
			status.Present = false
		default:
			return nil, fmt.Errorf("inspect image %s: %w", status.Reference(), err)
		}
		out = append(out, status)
	}
	return out, nil
}
