package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: --log-level is read from
// RESTRAIN_LOG_LEVEL.
const EnvPrefix = "RESTRAIN"

// ApplyEnv fills flags the user did not set from the environment. Any
// dotenv files given are loaded first; missing ones are skipped and
// variables already in the environment win over them.
func ApplyEnv(flags *pflag.FlagSet, dotenv ...string) error {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		val := v.GetString(f.Name)
		if val == f.Value.String() {
			return
		}
		if err := flags.Set(f.Name, val); err != nil {
			errs = append(errs, fmt.Errorf("%s_%s: %w", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err))
		}
	})
	return errors.Join(errs...)
}
