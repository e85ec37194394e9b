/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind               string
	catalog            string
	databaseURL        string
	leaderboardRefresh string
	leaderboardSize    int
	metrics            bool
	port               int
	prefix             string
	profile            bool
	publicURL          string
	sessionTimeout     time.Duration
	tlsCert            string
	tlsKey             string
	trustedProxy       bool
	verbose            bool
	version            bool
	voteBurst          int
	voteRate           float64
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.voteRate <= 0 {
		return fmt.Errorf("invalid vote rate (must be greater than 0): %v", c.voteRate)
	}
	if c.voteBurst < 1 {
		return fmt.Errorf("invalid vote burst (must be at least 1): %d", c.voteBurst)
	}
	if c.leaderboardSize < 1 {
		return fmt.Errorf("invalid leaderboard size (must be at least 1): %d", c.leaderboardSize)
	}
	if c.publicURL != "" {
		u, err := url.Parse(c.publicURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid public url (must be an absolute http or https url): %q", c.publicURL)
		}
	}
	if _, err := cron.ParseStandard(c.leaderboardRefresh); err != nil {
		return fmt.Errorf("invalid leaderboard refresh schedule %q: %w", c.leaderboardRefresh, err)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// bindEnv lets every flag in fs be set through its WRONGDLE_* variable.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WRONGDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wrongdle",
		Short:         "Guess whether the player in the clip is really better or worse than they claim.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.SetNormalizeFunc(normalize)

	pfs.StringVar(&cfg.catalog, "catalog", "", "path to a game catalog yaml file, built-in catalog if empty (env: WRONGDLE_CATALOG)")
	pfs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection string, in-memory storage if empty (env: WRONGDLE_DATABASE_URL)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WRONGDLE_VERBOSE)")

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WRONGDLE_BIND)")
	fs.StringVar(&cfg.leaderboardRefresh, "leaderboard-refresh", "@every 1m", "cron schedule for rebuilding leaderboards (env: WRONGDLE_LEADERBOARD_REFRESH)")
	fs.IntVar(&cfg.leaderboardSize, "leaderboard-size", 50, "number of entries shown per leaderboard (env: WRONGDLE_LEADERBOARD_SIZE)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: WRONGDLE_METRICS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WRONGDLE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WRONGDLE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WRONGDLE_PROFILE)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "external base url used in share links, e.g. https://wrongdle.example.com, taken from the request if empty (env: WRONGDLE_PUBLIC_URL)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 30*time.Minute, "time before idle live vote feeds are closed (env: WRONGDLE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WRONGDLE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WRONGDLE_TLS_KEY)")
	fs.BoolVar(&cfg.trustedProxy, "trusted-proxy", false, "rate limit by the CF-Connecting-IP or X-Real-IP header set by a reverse proxy (env: WRONGDLE_TRUSTED_PROXY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WRONGDLE_VERSION)")
	fs.IntVar(&cfg.voteBurst, "vote-burst", 10, "submissions allowed in a burst per client (env: WRONGDLE_VOTE_BURST)")
	fs.Float64Var(&cfg.voteRate, "vote-rate", 1, "sustained submissions per second allowed per client (env: WRONGDLE_VOTE_RATE)")

	bindEnv(v, pfs)
	bindEnv(v, fs)

	cmd.AddCommand(newSeedCmd(cfg, v))
	cmd.AddCommand(newAuditCmd(cfg))
	cmd.AddCommand(newCatalogCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wrongdle v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
