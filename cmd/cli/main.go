// Command gac is a command-line OAuth client for the gophauth server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	pkgcrypto "github.com/and161185/gophauth/internal/crypto"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: gac [-server URL] <command> [flags]

Commands:
  authorize -client ID -redirect URI -login EMAIL -password PASS [-scope S] [-state S]
            sign in on the authorize form and print the authorization code
  token     -code CODE -client ID -redirect URI [-secret S]
            exchange a code and save the access token
  revoke    revoke the saved access token and forget it
  hash      -password PASS
            print an argon2id hash for provisioning a user row
  version   print version
`)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := flag.NewFlagSet("gac", flag.ContinueOnError)
	root.SetOutput(stderr)
	server := root.String("server", envOr("GOPHAUTH_SERVER", "http://localhost:8080"), "server base URL")
	timeout := root.Duration("timeout", 15*time.Second, "request timeout")
	root.Usage = func() { usage(stderr) }
	if err := root.Parse(args); err != nil {
		return err
	}
	if root.NArg() < 1 {
		usage(stderr)
		return errors.New("missing command")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	c := newClient(*server, nil)

	cmd, rest := root.Arg(0), root.Args()[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "gac %s (%s)\n", version, buildDate)
		return nil

	case "authorize":
		fs := flag.NewFlagSet("authorize", flag.ContinueOnError)
		fs.SetOutput(stderr)
		var a authorizeArgs
		fs.Int64Var(&a.ClientID, "client", 0, "client id")
		fs.StringVar(&a.RedirectURI, "redirect", "", "registered redirect URI")
		fs.StringVar(&a.Login, "login", "", "user email")
		fs.StringVar(&a.Password, "password", "", "user password")
		fs.StringVar(&a.Scope, "scope", "", "space separated scopes")
		fs.StringVar(&a.State, "state", "", "opaque state")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if a.ClientID == 0 || a.RedirectURI == "" || a.Login == "" || a.Password == "" {
			return errors.New("authorize: -client, -redirect, -login and -password are required")
		}
		code, err := c.authorize(ctx, a)
		if err != nil {
			return fmt.Errorf("authorize: %w", err)
		}
		fmt.Fprintln(stdout, code)
		return nil

	case "token":
		fs := flag.NewFlagSet("token", flag.ContinueOnError)
		fs.SetOutput(stderr)
		code := fs.String("code", "", "authorization code")
		clientID := fs.Int64("client", 0, "client id")
		redirect := fs.String("redirect", "", "redirect URI used when authorizing")
		secret := fs.String("secret", "-", "client secret")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *code == "" || *clientID == 0 || *redirect == "" {
			return errors.New("token: -code, -client and -redirect are required")
		}
		tr, err := c.exchange(ctx, *code, *clientID, *redirect, *secret)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		if err := saveToken(tokenFile{Server: c.base, ClientID: *clientID, AccessToken: tr.AccessToken, Scope: tr.Scope}); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		fmt.Fprintf(stdout, "token saved (%s scope: %s)\n", tr.TokenType, tr.Scope)
		return nil

	case "revoke":
		tf, err := loadToken()
		if err != nil {
			return err
		}
		if tf.Server != "" && tf.Server != c.base {
			c = newClient(tf.Server, nil)
		}
		if err := c.revoke(ctx, tf.AccessToken); err != nil {
			return fmt.Errorf("revoke: %w", err)
		}
		if err := removeToken(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "token revoked")
		return nil

	case "hash":
		fs := flag.NewFlagSet("hash", flag.ContinueOnError)
		fs.SetOutput(stderr)
		password := fs.String("password", "", "password to hash")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *password == "" {
			return errors.New("hash: -password is required")
		}
		h, err := pkgcrypto.HashPassword(*password)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, h)
		return nil

	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
