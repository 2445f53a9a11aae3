// ABOUTME: Subcommand implementations for searcher-auth
// ABOUTME: Key management runs offline; token and watch talk to the block engine

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/searcher-auth/internal/config"
	"github.com/2389/searcher-auth/internal/keywatch"
	"github.com/2389/searcher-auth/pkg/auth"
	"github.com/2389/searcher-auth/pkg/client"
)

func cmdPubkey(args []string) error {
	fs := flag.NewFlagSet("pubkey", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.resolve()
	if err != nil {
		return err
	}
	signer, err := loadSigner(cfg)
	if err != nil {
		return err
	}

	fmt.Println(signer.Identity())
	return nil
}

func cmdKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	out := fs.String("out", "id.json", "where to write the keypair")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*out); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *out)
	}

	signer, err := auth.GenerateEd25519Signer()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := signer.WriteKeypairFile(*out); err != nil {
		return err
	}

	color.Green("✓ Wrote %s", *out)
	fmt.Printf("  Identity: %s\n", signer.Identity())
	return nil
}

func cmdToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	show := fs.Bool("show", false, "print the access token value")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conn, cfg, err := dial(common, true)
	if err != nil {
		return err
	}
	defer conn.Close()

	store := conn.Coordinator().Store()
	access, _ := store.Access()
	refresh, _ := store.Refresh()

	color.Green("✓ Authenticated")
	fmt.Printf("  Block engine: %s\n", cfg.BlockEngine.URL)
	fmt.Printf("  Identity:     %s\n", conn.Coordinator().Identity())
	fmt.Printf("  Role:         %s\n", cfg.Auth.Role)
	fmt.Printf("  Access:       expires %s (in %s)\n", access.ExpiresAt.Format(time.RFC3339), time.Until(access.ExpiresAt).Round(time.Second))
	fmt.Printf("  Refresh:      expires %s (in %s)\n", refresh.ExpiresAt.Format(time.RFC3339), time.Until(refresh.ExpiresAt).Round(time.Second))
	if *show {
		fmt.Println()
		fmt.Println(access.Token)
	}
	return nil
}

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	interval := fs.Duration("interval", 15*time.Second, "how often to check freshness")
	reload := fs.Bool("reload", false, "re-authenticate when the keypair file changes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conn, cfg, err := dial(common, false)
	if err != nil {
		return err
	}
	defer func() { conn.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rotated := make(chan auth.Signer, 1)
	if *reload {
		path, err := cfg.KeypairPath()
		if err != nil {
			return err
		}
		watcher := keywatch.New(path, newLogger(cfg))
		go func() {
			if err := watcher.Run(ctx, func(s auth.Signer) {
				select {
				case rotated <- s:
				case <-ctx.Done():
				}
			}); err != nil {
				color.Yellow("! keypair watcher stopped: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var last string
	for {
		cred, err := conn.Coordinator().EnsureFresh(ctx)
		switch {
		case ctx.Err() != nil:
			fmt.Println("stopped")
			return nil
		case errors.Is(err, auth.ErrRefreshFailed), errors.Is(err, auth.ErrAuthenticationFailed):
			color.Yellow("! %v", err)
		case err != nil:
			return err
		case cred.Token != last:
			last = cred.Token
			color.Cyan("%s  new access token, expires %s", time.Now().Format("15:04:05"), cred.ExpiresAt.Format(time.RFC3339))
		}

		select {
		case <-ctx.Done():
			fmt.Println("stopped")
			return nil
		case signer := <-rotated:
			next, err := connect(cfg, signer, false)
			if err != nil {
				color.Yellow("! keeping previous key: %v", err)
				continue
			}
			conn.Close()
			conn = next
			color.Cyan("%s  switched to %s", time.Now().Format("15:04:05"), signer.Identity())
		case <-ticker.C:
		}
	}
}

func dial(common commonFlags, eager bool) (*client.Conn, *config.Config, error) {
	cfg, err := common.resolve()
	if err != nil {
		return nil, nil, err
	}
	signer, err := loadSigner(cfg)
	if err != nil {
		return nil, nil, err
	}
	conn, err := connect(cfg, signer, eager)
	if err != nil {
		return nil, nil, err
	}
	return conn, cfg, nil
}

func connect(cfg *config.Config, signer auth.Signer, eager bool) (*client.Conn, error) {
	cc, err := clientConfig(cfg, eager)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return client.Dial(ctx, cc, signer, newLogger(cfg))
}
