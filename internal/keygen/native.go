package keygen

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/toeirei/gitswitch/internal/model"
	"golang.org/x/crypto/ssh"
)

// Native generates ed25519 keys in-process and writes them in the same
// formats ssh-keygen uses: OpenSSH PEM private key, authorized_keys public key.
type Native struct {
	Fs    afero.Fs
	Paths model.KeyPaths
}

// Generate writes a new keypair to Paths and reads it back.
func (g *Native) Generate(_ context.Context, email string) (model.KeyPair, error) {
	if err := removeStale(g.Fs, g.Paths); err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: clear stale key files: %w", ErrKeyGenFailed, err)
	}
	pub, priv, err := GenerateAndMarshalEd25519Key(email)
	if err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: %w", ErrKeyGenFailed, err)
	}
	if err := g.Fs.MkdirAll(g.Paths.Dir(), 0o700); err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: create %s: %w", ErrKeyGenFailed, g.Paths.Dir(), err)
	}
	if err := afero.WriteFile(g.Fs, g.Paths.Private, priv, 0o600); err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: write private key: %w", ErrKeyGenFailed, err)
	}
	if err := afero.WriteFile(g.Fs, g.Paths.Public, pub, 0o644); err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: write public key: %w", ErrKeyGenFailed, err)
	}
	return readBack(g.Fs, g.Paths, email)
}

// GenerateAndMarshalEd25519Key creates a new ed25519 key pair and returns the
// public key as an authorized_keys line ending in comment and the private key
// as an unencrypted OpenSSH PEM block carrying the same comment.
func GenerateAndMarshalEd25519Key(comment string) (publicKey, privateKey []byte, err error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}

	sshPubKey, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPubKey)))
	if comment != "" {
		line += " " + comment
	}

	pemBlock, err := ssh.MarshalPrivateKey(privKey, comment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return []byte(line + "\n"), pem.EncodeToMemory(pemBlock), nil
}
