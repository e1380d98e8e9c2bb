// Package session reads the locally persisted user session: the signed-in
// user id and the bearer token used for backend requests.
package session

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

const (
	keyUserID = "user_id"
	keyToken  = "token"
	envPrefix = "ADDRESSBOOK"
)

// Session is the signed-in user, if any.
type Session struct {
	UserID string
	Token  string
}

// Active reports whether the session can authenticate backend requests.
func (s Session) Active() bool {
	return s.UserID != "" && s.Token != ""
}

// Load reads the session file at path. A missing file or an empty path yields an
// empty session, which puts the address book into local-only mode.
// ADDRESSBOOK_USER_ID and ADDRESSBOOK_TOKEN override the file contents.
func Load(path string) (Session, error) {
	cfg := newViper()

	if path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Session{}, fmt.Errorf("failed to read session file: %w", err)
		}
	}

	return Session{
		UserID: cfg.GetString(keyUserID),
		Token:  cfg.GetString(keyToken),
	}, nil
}

// Save persists the session to path. The file format follows the extension.
func Save(path string, sess Session) error {
	cfg := viper.New()
	cfg.Set(keyUserID, sess.UserID)
	cfg.Set(keyToken, sess.Token)

	if err := cfg.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

func newViper() *viper.Viper {
	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	// BindEnv only fails when called without a key.
	_ = cfg.BindEnv(keyUserID)
	_ = cfg.BindEnv(keyToken)

	return cfg
}
