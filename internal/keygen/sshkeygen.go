package keygen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
	"github.com/toeirei/gitswitch/internal/model"
)

// SSHKeygen shells out to ssh-keygen. ssh-keygen writes to the real
// filesystem, so Fs must be an OS-backed afero.Fs.
type SSHKeygen struct {
	Fs    afero.Fs
	Paths model.KeyPaths
	// Binary defaults to "ssh-keygen".
	Binary string
	// KeyType defaults to "ed25519".
	KeyType string
}

// Generate runs `ssh-keygen -t <type> -f <private> -N "" -C <email>`.
func (g *SSHKeygen) Generate(ctx context.Context, email string) (model.KeyPair, error) {
	if err := removeStale(g.Fs, g.Paths); err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: clear stale key files: %w", ErrKeyGenFailed, err)
	}
	if err := g.Fs.MkdirAll(g.Paths.Dir(), 0o700); err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: create %s: %w", ErrKeyGenFailed, g.Paths.Dir(), err)
	}

	bin := g.Binary
	if bin == "" {
		bin = "ssh-keygen"
	}
	keyType := g.KeyType
	if keyType == "" {
		keyType = "ed25519"
	}

	cmd := exec.CommandContext(ctx, bin, "-q", "-t", keyType, "-f", g.Paths.Private, "-N", "", "-C", email)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: ssh-keygen: %w: %s", ErrKeyGenFailed, err, strings.TrimSpace(stderr.String()))
	}
	return readBack(g.Fs, g.Paths, email)
}
