package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"
)

// ---- token store ----

type tokenFile struct {
	Server      string `json:"server"`
	ClientID    int64  `json:"client_id"`
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gophauth")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gophauth")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalOptions{}.Marshal(json.EncodeOptions{Indent: "  "}, tf)
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath(), b, 0o600)
}

func loadToken() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tokenFile{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.AccessToken == "" {
		return tokenFile{}, errors.New("no saved token (run token first)")
	}
	return tf, nil
}

func removeToken() error {
	err := os.Remove(tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
