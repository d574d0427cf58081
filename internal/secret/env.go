package secret

import (
	"os"
	"strings"
)

// EnvStore maps keys to environment variables: "source/prod" reads
// WHITEBOARD_SECRET_SOURCE_PROD.
type EnvStore struct{}

func NewEnvStore() EnvStore { return EnvStore{} }

func envName(key string) string {
	r := strings.NewReplacer("/", "_", "-", "_", ".", "_", " ", "_")
	return "WHITEBOARD_SECRET_" + strings.ToUpper(r.Replace(key))
}

func (EnvStore) Get(key string) ([]byte, error) {
	v := os.Getenv(envName(key))
	if v == "" {
		return nil, nil
	}
	return []byte(v), nil
}

func (EnvStore) Set(key string, value []byte) error {
	return os.Setenv(envName(key), string(value))
}

func (EnvStore) Delete(key string) error {
	return os.Unsetenv(envName(key))
}
