// Command csrftoken mints and inspects CSRF tokens for a secret and salt,
// reading the same CSRF_* configuration as the servers.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JeanGrijp/go-csrf-token/csrf"
	"github.com/JeanGrijp/go-csrf-token/csrfconfig"
)

func main() {
	_ = godotenv.Load(".env")

	log, err := zap.NewDevelopment()
	if err != nil {
		log = zap.NewNop()
	}
	os.Exit(execute(newRootCmd(time.Now), log))
}

// execute runs cmd and returns the process exit code. Failures are logged
// at error level; cobra's own error output is silenced.
func execute(cmd *cobra.Command, log *zap.Logger) int {
	defer log.Sync() //nolint:errcheck

	if err := cmd.Execute(); err != nil {
		log.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return 1
	}
	return 0
}

type flags struct {
	config string
	secret string
	salt   string
}

// signer resolves the secret and salt: flags first, then the config.
func (f *flags) signer() (*csrf.Signer, csrfconfig.Config, error) {
	cfg, err := csrfconfig.Load(f.config)
	if err != nil {
		return nil, cfg, err
	}
	if f.secret != "" {
		cfg.Options.SecretKey = f.secret
	}
	if f.salt != "" {
		cfg.Salt = f.salt
	}
	if cfg.Options.SecretKey == "" {
		return nil, cfg, errors.New("missing secret (flag --secret or env CSRF_SECRET_KEY)")
	}
	s, err := csrf.NewSigner(cfg.Options.SecretKey, cfg.Salt)
	return s, cfg, err
}

func newRootCmd(now func() time.Time) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "csrftoken",
		Short:         "Mint and inspect signed CSRF tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.config, "config", "", "optional config file (yaml, json, toml, env)")
	root.PersistentFlags().StringVar(&f.secret, "secret", "", "signing secret (env CSRF_SECRET_KEY)")
	root.PersistentFlags().StringVar(&f.salt, "salt", "", "signing salt (env CSRF_SALT)")

	root.AddCommand(newMintCmd(f), newDecodeCmd(f, now))
	return root
}

func newMintCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "mint [session-id]",
		Short: "Print a new token; the payload is random when no session id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := f.signer()
			if err != nil {
				return err
			}
			var sid string
			if len(args) == 1 {
				sid = args[0]
			}
			tok, err := s.Encode(sid)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}

func newDecodeCmd(f *flags, now func() time.Time) *cobra.Command {
	var maxAge int
	cmd := &cobra.Command{
		Use:   "decode <token>",
		Short: "Verify a token and print its payload and age",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := f.signer()
			if err != nil {
				return err
			}
			settings, err := cfg.Settings()
			if err != nil {
				return err
			}
			payload, issuedAt, err := s.Inspect(args[0])
			if err != nil {
				return fmt.Errorf("%s (%w)", csrf.MessageInvalid, err)
			}
			limit := settings.MaxAge()
			if cmd.Flags().Changed("max-age") {
				limit = maxAge
			}
			age := int(now().Sub(issuedAt) / time.Second)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "payload:   %s\n", payload)
			fmt.Fprintf(out, "issued at: %s\n", issuedAt.UTC().Format(time.RFC3339))
			if limit < 0 {
				fmt.Fprintf(out, "age:       %ds (no limit)\n", age)
				return nil
			}
			fmt.Fprintf(out, "age:       %ds (limit %ds)\n", age, limit)
			if age < 0 || age > limit {
				return errors.New(csrf.MessageExpired)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAge, "max-age", 0, "age limit in seconds, negative for none (default CSRF_MAX_AGE or 3600)")
	return cmd
}
