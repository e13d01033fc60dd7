package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/spf13/viper"
)

// Config is built once at startup and handed to every constructor that
// needs it.
type Config struct {
	Addr          string
	DSN           string
	DevLogging    bool
	SessionSecret string
	SessionMaxAge int
	SecureCookies bool
	CORSOrigins   []string
	// RateLimit is requests per minute per client IP and endpoint.
	RateLimit int
	S3        S3
	Limits    messenger.Limits
}

type S3 struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
}

// Enabled reports whether attachment payloads go to object storage.
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("ADDR", ":3000")
	v.SetDefault("DEV_LOGGING", false)
	v.SetDefault("SESSION_MAX_AGE", 86400*30)
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("S3_REGION", "auto")

	defaults := messenger.DefaultLimits()
	for key, r := range limitKeys(&defaults) {
		v.SetDefault("LIMITS_"+key+"_MIN", r.Min)
		v.SetDefault("LIMITS_"+key+"_MAX", r.Max)
	}
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:          v.GetString("ADDR"),
		DSN:           v.GetString("DSN"),
		DevLogging:    v.GetBool("DEV_LOGGING"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionMaxAge: v.GetInt("SESSION_MAX_AGE"),
		SecureCookies: v.GetBool("SECURE_COOKIES"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		RateLimit:     v.GetInt("RATE_LIMIT"),
		S3: S3{
			Bucket:          v.GetString("BUCKET_NAME"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			Region:          v.GetString("S3_REGION"),
			AccessKeyID:     v.GetString("ACCESS_KEY_ID"),
			AccessKeySecret: v.GetString("ACCESS_KEY_SECRET"),
		},
	}
	for key, r := range limitKeys(&cfg.Limits) {
		r.Min = v.GetInt("LIMITS_" + key + "_MIN")
		r.Max = v.GetInt("LIMITS_" + key + "_MAX")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DSN == "" {
		errs = append(errs, errors.New("DSN is not set"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is not set"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit))
	}
	for key, r := range limitKeys(&c.Limits) {
		if r.Min < 0 || r.Min > r.Max {
			errs = append(errs, fmt.Errorf("LIMITS_%s: invalid range [%d, %d]", key, r.Min, r.Max))
		}
	}
	return errors.Join(errs...)
}

func limitKeys(l *messenger.Limits) map[string]*messenger.Range {
	return map[string]*messenger.Range{
		"USER_NAME":       &l.UserName,
		"USER_LAST_NAME":  &l.UserLastName,
		"USER_EMAIL":      &l.UserEmail,
		"USER_PASSWORD":   &l.UserPassword,
		"CHAT_NAME":       &l.ChatName,
		"CHAT_MEMBERS":    &l.ChatMembers,
		"MESSAGE_TEXT":    &l.MessageText,
		"ATTACHMENT_TYPE": &l.AttachmentType,
		"ATTACHMENT_FILE": &l.AttachmentFile,
	}
}

// splitList parses a comma separated list, dropping blanks and trailing
// slashes.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}
